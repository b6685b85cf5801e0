package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

var defsCmd = &cobra.Command{
	Use:   "defs <library>",
	Short: "List the maps in a definition library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := ecumap.LoadLibrary(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if lib.ECU != "" {
			fmt.Fprintf(out, "ECU: %s\n", lib.ECU)
		}
		fmt.Fprintf(out, "%d maps\n\n", lib.Len())

		tw := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "NAME\tADDRESS\tSIZE\tENCODING\tFACTOR\tBYTES\tUNIT")
		for _, def := range lib.Definitions() {
			fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\t%s\t%s\n",
				def.Name(),
				ecumap.Address(def.StartAddress()),
				def.Rows(), def.Columns(),
				def.Encoding(),
				formatCell(def.ConversionFactor()),
				humanize.IBytes(uint64(def.ByteCount())),
				def.Unit(),
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(defsCmd)
}
