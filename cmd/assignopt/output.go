package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pterm/pterm"

	"quboassign/internal/opt"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(res *opt.Result) {
	rows := [][]string{{"Customer", "Warehouse", "Distance (km)", "Cost", "CO2 (kg)", "Hours"}}
	records := append(res.Records[:0:0], res.Records...)
	sort.Slice(records, func(a, b int) bool { return records[a].CustomerID < records[b].CustomerID })
	for _, r := range records {
		rows = append(rows, []string{
			r.CustomerID, r.WarehouseID,
			fmt.Sprintf("%.2f", r.DistanceKm),
			fmt.Sprintf("%.2f", r.Cost),
			fmt.Sprintf("%.2f", r.CO2),
			fmt.Sprintf("%.2f", r.DeliveryHours),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()

	agg := res.Aggregate
	_ = pterm.DefaultTable.WithHasHeader(false).WithData([][]string{
		{"Run", res.RunID},
		{"Strategy", fmt.Sprintf("%s (%s)", res.Strategy, res.StrategyReason)},
		{"Total cost", fmt.Sprintf("%.2f", agg.TotalCost)},
		{"Total CO2 (kg)", fmt.Sprintf("%.2f", agg.TotalCO2)},
		{"Avg delivery (h)", fmt.Sprintf("%.2f", agg.AvgDeliveryTime)},
		{"Routes / warehouses", fmt.Sprintf("%d / %d", agg.RoutesUsed, agg.WarehousesUsed)},
		{"Variables", fmt.Sprintf("%d (from %d)", res.Variables, res.Original.Variables())},
		{"Samples", fmt.Sprintf("%d evaluated, best #%d", res.Samples, res.BestSample)},
		{"Repair moves", fmt.Sprint(res.RepairMoves)},
	}).Render()

	for _, t := range res.Tours {
		pterm.Info.Printfln("tour %s: %.1f km over %d stops", t.WarehouseID, t.DistanceKm, len(t.CustomerIDs))
	}
	if len(res.Warnings) == 0 {
		pterm.Success.Println("assignment complete")
		return
	}
	for _, w := range res.Warnings {
		pterm.Warning.Println(w.String())
	}
}
