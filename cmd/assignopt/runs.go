package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	runsLabel string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List stored runs, or show one",
	Long: `Runs reads results saved by solve and compare. It needs store.databaseUrl
(or ASSIGNOPT_DATABASE_URL).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		// an in-process store would always be empty here
		if cfg.Store.DatabaseURL == "" {
			return errors.New("runs: no database configured (store.databaseUrl)")
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			run, err := st.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(run)
		}
		runs, err := st.ListRuns(ctx, runsLabel, runsLimit)
		if err != nil {
			return err
		}
		if flags.Output == "json" {
			return printJSON(runs)
		}
		rows := [][]string{{"Run", "Label", "Strategy", "Created", "Total cost", "Warehouses", "Warnings"}}
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.Label,
				r.Strategy,
				r.CreatedAt.Format(time.RFC3339),
				fmt.Sprintf("%.2f", r.Aggregate.TotalCost),
				fmt.Sprint(r.Aggregate.WarehousesUsed),
				fmt.Sprint(len(r.Warnings)),
			})
		}
		return pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsLabel, "label", "", "only runs with this label")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs listed")
}
