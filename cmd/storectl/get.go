// Get command for the storectl CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <entity> <id>",
	Short: "Get an entity by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "get:", err)
			os.Exit(exitSysError)
		}
		defer engine.Destroy()

		entity, err := engine.Adapter(args[0]).Get(args[1])
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitUserError)
			}
			return fmt.Errorf("get entity: %w", err)
		}
		return printEntity(entity)
	},
}
