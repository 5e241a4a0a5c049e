// List command queries entities with optional filtering, sorting, and
// pagination.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

var (
	flagSort     []string
	flagPage     int
	flagPageSize int
)

var listCmd = &cobra.Command{
	Use:   "list <entity> [filter...]",
	Short: "List entities with optional filter",
	Long: `List queries entities with optional filters.

Filters are specified as key=value pairs. Multiple filters are ANDed
together. An empty filter returns all entities.

Example:
  storectl list Product
  storectl list Product stock=100
  storectl list Product --sort price:desc --page 1 --page-size 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilterArgs(args[1:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitUserError)
		}

		engine, err := openEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list:", err)
			os.Exit(exitSysError)
		}
		defer engine.Destroy()

		opts := &types.FindOptions{Sort: parseSortFlag(flagSort)}
		res, err := engine.Adapter(args[0]).FindPage(filter, opts, types.Pagination{
			PageNo:   flagPage,
			PageSize: flagPageSize,
		})
		if err != nil {
			return fmt.Errorf("list entities: %w", err)
		}
		return printResult(res)
	},
}

func init() {
	listCmd.Flags().StringSliceVar(&flagSort, "sort", nil, "sort keys, field or field:desc")
	listCmd.Flags().IntVar(&flagPage, "page", 0, "page number (1-based)")
	listCmd.Flags().IntVar(&flagPageSize, "page-size", 0, "page size")
}
