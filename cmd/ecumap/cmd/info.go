package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ecumap/internal/core"
)

var infoCmd = &cobra.Command{
	Use:   "info <firmware>",
	Short: "Show size, fingerprint and checksum status of a firmware image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read firmware: %w", err)
		}

		accepted := "yes"
		if err := core.ValidateFileName(path); err != nil {
			accepted = "no (" + err.Error() + ")"
		}
		checksum := "invalid"
		if core.VerifyChecksum(data) {
			checksum = "valid"
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "File:\t%s\n", path)
		fmt.Fprintf(tw, "Size:\t%s (%s bytes)\n", humanize.IBytes(uint64(len(data))), humanize.Comma(int64(len(data))))
		fmt.Fprintf(tw, "Last address:\t%s\n", lastAddress(len(data)))
		fmt.Fprintf(tw, "BLAKE3:\t%s\n", core.Fingerprint(data))
		fmt.Fprintf(tw, "Checksum:\t%s\n", checksum)
		fmt.Fprintf(tw, "Upload accepted:\t%s\n", accepted)
		return tw.Flush()
	},
}

func lastAddress(size int) string {
	if size == 0 {
		return "-"
	}
	return fmt.Sprintf("0x%X", size-1)
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
