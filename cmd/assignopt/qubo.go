package main

import (
	"encoding/json"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quboassign/internal/opt"
)

var quboOut string

var quboCmd = &cobra.Command{
	Use:   "qubo <problem>",
	Short: "Export the Ising Hamiltonian for an external sampler",
	Long: `Qubo applies the configured reductions, calibrates penalties and writes
the Hamiltonian as {offset, linear, couplings} JSON. Variable (i, j) is
index i*customers+j of the reduced problem.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		mdl, err := opt.BuildModel(doc.Problem(), cfg.Options())
		if err != nil {
			return err
		}
		logger.Info("hamiltonian built",
			zap.Int("spins", mdl.Hamiltonian.NumSpins()),
			zap.Int("couplings", len(mdl.Hamiltonian.Couplings())),
			zap.Float64("penalty_assignment", mdl.Penalties.Assignment))

		data, err := json.MarshalIndent(mdl.Hamiltonian, "", "  ")
		if err != nil {
			return err
		}
		if quboOut == "" || quboOut == "-" {
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(quboOut, data, 0o644); err != nil {
			return err
		}
		r := mdl.Reduction
		pterm.Success.Printfln("wrote %s: %d spins (%d x %d reduced from %d x %d)",
			quboOut, mdl.Hamiltonian.NumSpins(),
			r.Reduced.Warehouses, r.Reduced.Customers, r.Original.Warehouses, r.Original.Customers)
		return nil
	},
}

func init() {
	quboCmd.Flags().StringVarP(&quboOut, "out", "w", "-", "output file, - for stdout")
}
