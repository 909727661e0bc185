package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmryasin/compval/internal/numeric"
)

var parseCmd = &cobra.Command{
	Use:   "parse <text>...",
	Short: "Debug helper: show how a numeric string normalizes",
	Long:  `Prints the normalized value of each argument, e.g. "1.500.000 TL" or "1.234,56". Unparseable input prints "nil".`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			v := numeric.Parse(arg)
			if v == nil {
				fmt.Printf("%-24q -> nil\n", arg)
				continue
			}
			fmt.Printf("%-24q -> %g\n", arg, *v)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
