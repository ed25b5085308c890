package main

import (
	"github.com/spf13/cobra"

	"quboassign/internal/opt"
)

var (
	solveSamples []string
	solveLabel   string
)

var solveCmd = &cobra.Command{
	Use:   "solve <problem>",
	Short: "Solve an assignment problem",
	Long: `Solve reads a problem, produces candidates with the configured strategy,
repairs them and prints the assignment with its cost, CO2 and delivery time.

Bitstrings passed with --sample (or listed under "samples" in the document)
are decoded with index 0 as the rightmost character.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		doc, err := loadDocument(ctx, args[0])
		if err != nil {
			return err
		}
		req := opt.Request{
			Problem:  doc.Problem(),
			Samples:  append(doc.Samples, solveSamples...),
			Baseline: doc.Baseline,
			Options:  cfg.Options(),
		}
		engine, done, err := newEngine()
		if err != nil {
			return err
		}
		defer done()
		res, err := engine.Optimize(ctx, req)
		if err != nil {
			return err
		}
		label := solveLabel
		if label == "" {
			label = args[0]
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := saveRuns(ctx, st, label, res); err != nil {
			return err
		}
		if flags.Output == "json" {
			return printJSON(res)
		}
		printResult(res)
		return nil
	},
}

func init() {
	solveCmd.Flags().StringArrayVar(&solveSamples, "sample", nil, "bitstring sample (repeatable)")
	solveCmd.Flags().StringVar(&solveLabel, "label", "", "label for the stored run (default: the problem path)")
}
