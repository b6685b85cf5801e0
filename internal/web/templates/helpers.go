// Package templates renders the HTML fragments served to HTMX clients.
//
// Components are written in templ; run `templ generate` after editing a
// .templ file.
package templates

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/ecumap/internal/core"
	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

// IndexData is what the landing page shows.
type IndexData struct {
	MaxFileSize int64
	Firmware    []core.FirmwareInfo
	Strategies  []string
}

var exampleDefinition = `{"name": "Fuel Map", "start_address": "0x1C000", "columns": 16, "rows": 16, "data_type": "` +
	ecumap.DefaultToken + `", "conversion_factor": 0.1}`

// FormatCell renders a map value in its shortest exact decimal form.
func FormatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func failureAlert(res core.MapResult) templ.Component {
	msg := core.MapError(res.Err)
	return ErrorAlert(res.Name+": "+msg.Message, msg.Action, msg.Code, res.Err.Error())
}

func limitSummary(res core.SafeLimit) string {
	return fmt.Sprintf("Risk %s/100, hard limit %s (%s)",
		FormatCell(res.RiskScore), FormatCell(res.HardLimit), res.Strategy)
}
