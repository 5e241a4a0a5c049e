// Set command for the storectl CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

var setCmd = &cobra.Command{
	Use:   "set <entity> <json>",
	Short: "Create or update an entity (upsert)",
	Long: `Set upserts an entity: when the payload carries an id that is already
stored it updates, otherwise it creates.

Example:
  storectl set Product '{"id":"product_1","stock":42}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload types.Entity
		if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
			fmt.Fprintf(os.Stderr, "parse JSON: %s\n", err)
			os.Exit(exitUserError)
		}

		engine, err := openEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "set:", err)
			os.Exit(exitSysError)
		}
		defer engine.Destroy()

		saved, err := engine.Adapter(args[0]).Save(payload)
		if err != nil {
			return fmt.Errorf("save entity: %w", err)
		}
		return printEntity(saved)
	},
}
