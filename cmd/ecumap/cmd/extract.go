package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ecumap/internal/core"
	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

// Output formats for extract.
const (
	formatTable   = "table"
	formatHeatmap = "heatmap"
	formatJSON    = "json"
	formatCSV     = "csv"
)

var (
	defsPath    string
	mapNames    []string
	extractAll  bool
	outFormat   string
	parallelism int

	inlineName    string
	inlineAddress string
	inlineColumns int
	inlineRows    int
	inlineType    string
	inlineSigned  bool
	inlineFactor  float64
	inlineUnit    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <firmware>",
	Short: "Extract one or more maps from a firmware image",
	Long: `Extract maps from a firmware image.

Maps are taken from a definition library (--defs, JSON/JSONC or YAML)
by name (--map, repeatable) or all at once (--all). Without --defs a
single map is described inline with --address, --columns and friends.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&defsPath, "defs", "d", "", "definition library file (.json, .jsonc, .yaml)")
	f.StringSliceVarP(&mapNames, "map", "m", nil, "map name from the library (repeatable)")
	f.BoolVar(&extractAll, "all", false, "extract every map in the library")
	f.StringVarP(&outFormat, "format", "o", formatTable, "output format: table, heatmap, json, csv")
	f.IntVarP(&parallelism, "parallel", "p", 4, "maps extracted concurrently")

	f.StringVar(&inlineName, "name", "map", "inline map name")
	f.StringVarP(&inlineAddress, "address", "a", "", "inline start address (decimal or 0x hex)")
	f.IntVarP(&inlineColumns, "columns", "c", 0, "inline column count")
	f.IntVarP(&inlineRows, "rows", "r", 0, "inline row count")
	f.StringVarP(&inlineType, "type", "t", ecumap.DefaultToken, "inline element type: 8bit, 16bit_hi_lo, 16bit_lo_hi")
	f.BoolVar(&inlineSigned, "signed", false, "inline elements are signed")
	f.Float64Var(&inlineFactor, "factor", ecumap.DefaultConversionFactor, "inline conversion factor")
	f.StringVar(&inlineUnit, "unit", "", "inline unit label")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	switch outFormat {
	case formatTable, formatHeatmap, formatJSON, formatCSV:
	default:
		return fmt.Errorf("unknown format %q (want table, heatmap, json or csv)", outFormat)
	}

	image, err := readFirmware(args[0])
	if err != nil {
		return err
	}

	defs, err := selectDefinitions(cmd)
	if err != nil {
		return err
	}

	results, err := ecumap.ExtractAll(cmd.Context(), image, defs, parallelism)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := writeResults(out, outFormat, results); err != nil {
		return err
	}

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			msg := core.MapError(res.Err)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s [%s]\n  %v\n", res.Definition.Name(), msg.Message, msg.Code, res.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d maps failed", failed, len(results))
	}
	return nil
}

// readFirmware loads an image from disk, enforcing the same name and size
// rules as the server.
func readFirmware(path string) ([]byte, error) {
	if err := core.ValidateFileName(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read firmware: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, core.ErrEmptyFile)
	}
	return data, nil
}

// selectDefinitions resolves the maps to extract from the library flags or
// the inline definition flags.
func selectDefinitions(cmd *cobra.Command) ([]ecumap.Definition, error) {
	if defsPath == "" {
		if len(mapNames) > 0 || extractAll {
			return nil, errors.New("--map and --all require --defs")
		}
		def, err := inlineDefinition(cmd)
		if err != nil {
			return nil, err
		}
		return []ecumap.Definition{def}, nil
	}

	lib, err := ecumap.LoadLibrary(defsPath)
	if err != nil {
		return nil, err
	}
	if extractAll {
		if len(mapNames) > 0 {
			return nil, errors.New("--map and --all are mutually exclusive")
		}
		return lib.Definitions(), nil
	}
	if len(mapNames) == 0 {
		return nil, errors.New("choose maps with --map or --all")
	}

	defs := make([]ecumap.Definition, 0, len(mapNames))
	for _, name := range mapNames {
		def, ok := lib.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("map %q not found in %s", name, defsPath)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func inlineDefinition(cmd *cobra.Command) (ecumap.Definition, error) {
	if inlineAddress == "" {
		return ecumap.Definition{}, errors.New("--address is required without --defs")
	}
	addr, err := ecumap.ParseAddress(inlineAddress)
	if err != nil {
		return ecumap.Definition{}, err
	}

	payload := ecumap.DefinitionPayload{
		Name:         inlineName,
		StartAddress: addr,
		Columns:      inlineColumns,
		Rows:         inlineRows,
		DataType:     inlineType,
		IsSigned:     inlineSigned,
		Unit:         inlineUnit,
	}
	// Leave the factor unset unless given so NewDefinition applies its default.
	if cmd.Flags().Changed("factor") {
		f := inlineFactor
		payload.ConversionFactor = &f
	}
	return ecumap.NewDefinition(payload)
}

func writeResults(w io.Writer, format string, results []ecumap.Result) error {
	switch format {
	case formatJSON:
		return writeJSONResults(w, results)
	case formatCSV:
		return writeCSVResults(w, results)
	}

	for i, res := range results {
		if res.Err != nil {
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, mapHeader(res.Definition, res.Grid))
		var err error
		if format == formatHeatmap {
			_, err = io.WriteString(w, renderHeatmap(res.Grid))
		} else {
			err = writeTable(w, res.Grid)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func mapHeader(def ecumap.Definition, grid *ecumap.Grid) string {
	header := fmt.Sprintf("%s @ %s  %dx%d %s  min %s  max %s",
		def.Name(), ecumap.Address(def.StartAddress()), def.Rows(), def.Columns(), def.Encoding(),
		formatCell(grid.Min()), formatCell(grid.Max()))
	if def.Unit() != "" {
		header += "  [" + def.Unit() + "]"
	}
	return header
}

// writeTable prints the grid with aligned columns.
func writeTable(w io.Writer, grid *ecumap.Grid) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', tabwriter.AlignRight)
	for r := 0; r < grid.Rows(); r++ {
		cells := make([]string, grid.Columns())
		for c, v := range grid.Row(r) {
			cells[c] = formatCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

type jsonMap struct {
	Name         string       `json:"name"`
	StartAddress string       `json:"start_address"`
	Encoding     string       `json:"encoding"`
	Unit         string       `json:"unit,omitempty"`
	MapData      *ecumap.Grid `json:"map_data,omitempty"`
	Error        string       `json:"error,omitempty"`
}

func writeJSONResults(w io.Writer, results []ecumap.Result) error {
	maps := make([]jsonMap, len(results))
	for i, res := range results {
		def := res.Definition
		maps[i] = jsonMap{
			Name:         def.Name(),
			StartAddress: ecumap.Address(def.StartAddress()).String(),
			Encoding:     def.Encoding().String(),
			Unit:         def.Unit(),
			MapData:      res.Grid,
		}
		if res.Err != nil {
			maps[i].Error = res.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(maps)
}

// writeCSVResults writes one record per map row, prefixed with the map name
// so several maps can share a file.
func writeCSVResults(w io.Writer, results []ecumap.Result) error {
	cw := csv.NewWriter(w)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for r := 0; r < res.Grid.Rows(); r++ {
			record := make([]string, 0, res.Grid.Columns()+1)
			record = append(record, res.Definition.Name())
			for _, v := range res.Grid.Row(r) {
				record = append(record, formatCell(v))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
