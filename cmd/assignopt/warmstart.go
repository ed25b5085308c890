package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quboassign/internal/dataset"
	"quboassign/internal/geo"
	"quboassign/internal/model"
	"quboassign/internal/opt"
	"quboassign/internal/repair"
	"quboassign/internal/warmstart"
)

var warmstartCmd = &cobra.Command{
	Use:   "warmstart <problem>",
	Short: "Derive warm-start angles from a classical baseline",
	Long: `Warmstart uses the document's baseline assignment, or the greedy baseline
when none is given, and prints gammas followed by betas.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		baseline, source, warnings := warmstartBaseline(doc)
		for _, w := range warnings {
			logger.Warn("baseline warning", zap.String("kind", string(w.Kind)), zap.String("message", w.Message))
		}
		params := warmstart.Generate(baseline, cfg.Engine.Layers)
		if flags.Output == "json" {
			return printJSON(params)
		}
		rows := [][]string{{"Layer", "Gamma", "Beta"}}
		for l := range params.Gammas {
			rows = append(rows, []string{fmt.Sprint(l), fmt.Sprintf("%.4f", params.Gammas[l]), fmt.Sprintf("%.4f", params.Betas[l])})
		}
		pterm.Info.Printfln("baseline: %s, balance %.3f", source, params.Balance)
		for _, w := range warnings {
			pterm.Warning.Println(w.String())
		}
		return pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()
	},
}

// warmstartBaseline prefers the document's baseline and falls back to the
// greedy one, whose overflow warnings are returned.
func warmstartBaseline(doc *dataset.Document) (map[string]string, string, []model.Warning) {
	if len(doc.Baseline) > 0 {
		return doc.Baseline, "document", nil
	}
	p := doc.Problem()
	choice, warnings := opt.GreedyBaseline(p, geo.Resolve(p))
	return repair.ToMap(choice, p), "greedy", warnings
}
