// Count command for the storectl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count <entity> [filter...]",
	Short: "Count entities matching an optional filter",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilterArgs(args[1:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitUserError)
		}

		engine, err := openEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "count:", err)
			os.Exit(exitSysError)
		}
		defer engine.Destroy()

		n, err := engine.Adapter(args[0]).Count(filter)
		if err != nil {
			return fmt.Errorf("count entities: %w", err)
		}
		fmt.Println(n)
		return nil
	},
}
