package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quboassign/internal/dataset"
	"quboassign/internal/events"
	"quboassign/internal/opt"
	"quboassign/internal/store"
)

var compareCmd = &cobra.Command{
	Use:   "compare <problem>",
	Short: "Run every available strategy and compare aggregates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		doc, err := loadDocument(ctx, args[0])
		if err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cmp, err := compareStrategies(ctx, doc, args[0], st)
		if err != nil {
			return err
		}
		if flags.Output == "json" {
			return printJSON(cmp)
		}
		rows := [][]string{{"Strategy", "Run", "Total cost", "CO2 (kg)", "Avg hours", "Warehouses", "Variables", "Warnings", "Duration"}}
		for _, s := range cmp.Strategies {
			sum := cmp.Summaries[s]
			rows = append(rows, []string{
				string(s),
				cmp.Runs[s].ID,
				fmt.Sprintf("%.2f", sum.Aggregate.TotalCost),
				fmt.Sprintf("%.2f", sum.Aggregate.TotalCO2),
				fmt.Sprintf("%.2f", sum.Aggregate.AvgDeliveryTime),
				fmt.Sprint(sum.Aggregate.WarehousesUsed),
				fmt.Sprint(sum.Variables),
				fmt.Sprint(sum.Warnings),
				sum.Duration.Round(time.Microsecond).String(),
			})
		}
		return pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()
	},
}

type comparison struct {
	Label      string                       `json:"label"`
	Strategies []opt.Strategy               `json:"strategies"`
	Summaries  map[opt.Strategy]opt.Summary `json:"summaries"`
	// Runs are read back from the store after saving.
	Runs map[opt.Strategy]store.Run `json:"runs"`
	// Completed lists strategies in the order their completion events arrived.
	Completed []string `json:"completed"`
}

// compareStrategies runs greedy, the sampler and, when the document has
// them, the supplied samples, then saves every run to st.
func compareStrategies(ctx context.Context, doc *dataset.Document, label string, st store.Store) (*comparison, error) {
	strategies := []opt.Strategy{opt.StrategyGreedy, opt.StrategySampler}
	if len(doc.Samples) > 0 {
		strategies = append(strategies, opt.StrategySamples)
	}
	out := &comparison{Label: label, Strategies: strategies, Runs: map[opt.Strategy]store.Run{}}

	fan := events.NewMemory(1024)
	sub := fan.Subscribe(events.All)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for evt := range sub {
			if evt.Type != events.RunCompleted {
				continue
			}
			s, _ := evt.Data["strategy"].(string)
			out.Completed = append(out.Completed, s)
			logger.Info("strategy finished", zap.String("strategy", s), zap.String("run_id", evt.RunID), zap.Any("total_cost", evt.Data["totalCost"]))
		}
	}()
	stopFollowing := func() {
		fan.Unsubscribe(events.All, sub)
		wg.Wait()
	}

	engine, done, err := newEngine(fan)
	if err != nil {
		stopFollowing()
		return nil, err
	}
	defer done()

	rec := opt.NewRecorder()
	var results []*opt.Result
	for _, s := range strategies {
		o := cfg.Options()
		o.Strategy = s
		res, err := engine.Optimize(ctx, opt.Request{
			Problem:  doc.Problem(),
			Samples:  doc.Samples,
			Baseline: doc.Baseline,
			Options:  o,
		})
		if err != nil {
			stopFollowing()
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		rec.Record(label, res)
		results = append(results, res)
	}
	stopFollowing()

	if err := saveRuns(ctx, st, label, results...); err != nil {
		return nil, err
	}
	for _, res := range results {
		run, err := st.GetRun(ctx, res.RunID)
		if err != nil {
			return nil, err
		}
		out.Runs[res.Strategy] = run
	}
	out.Summaries = rec.Get(label)
	return out, nil
}
