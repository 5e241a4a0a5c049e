// Create command for the storectl CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

var createCmd = &cobra.Command{
	Use:   "create <entity> <json>",
	Short: "Create an entity from a JSON payload",
	Long: `Create stores a new entity. An id of the form <entity>_<suffix> and a
creation timestamp are stamped when the payload lacks them.

Example:
  storectl create Product '{"name":"Pen","price":1.5,"stock":100}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload types.Entity
		if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
			fmt.Fprintf(os.Stderr, "parse JSON: %s\n", err)
			os.Exit(exitUserError)
		}

		engine, err := openEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "create:", err)
			os.Exit(exitSysError)
		}
		defer engine.Destroy()

		created, err := engine.Adapter(args[0]).Create(payload)
		if err != nil {
			return fmt.Errorf("create entity: %w", err)
		}
		return printEntity(created)
	},
}
