// Delete command for the storectl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <entity> <id>",
	Short: "Delete an entity by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete:", err)
			os.Exit(exitSysError)
		}
		defer engine.Destroy()

		existed, err := engine.Adapter(args[0]).DeleteByID(args[1])
		if err != nil {
			return fmt.Errorf("delete entity: %w", err)
		}
		if !existed {
			fmt.Fprintf(os.Stderr, "no %s with id %q\n", args[0], args[1])
			os.Exit(exitUserError)
		}
		fmt.Printf("deleted %s %s\n", args[0], args[1])
		return nil
	},
}
