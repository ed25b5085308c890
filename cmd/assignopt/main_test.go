package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quboassign/internal/config"
	"quboassign/internal/dataset"
	"quboassign/internal/model"
	"quboassign/internal/opt"
	"quboassign/internal/store"
)

const problemYAML = `
warehouses:
  - {id: W1, lat: 40.71, lon: -74.00, capacity: 100}
  - {id: W2, lat: 40.90, lon: -73.80, capacity: 80}
customers:
  - {id: C1, lat: 40.72, lon: -74.01, demand: 30}
  - {id: C2, lat: 40.88, lon: -73.82, demand: 40}
samples: ["1111"]
`

func run(t *testing.T, args ...string) error {
	t.Helper()
	flags = globalFlags{}
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	return rootCmd.Execute()
}

func writeProblem(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(problemYAML), 0o644))
	return path
}

func TestSolveCommand(t *testing.T) {
	path := writeProblem(t)
	require.NoError(t, run(t, "solve", path, "-o", "json"))
	require.NoError(t, run(t, "solve", path, "--strategy", "greedy"))
}

func TestQuboCommandWritesHamiltonian(t *testing.T) {
	path := writeProblem(t)
	out := filepath.Join(t.TempDir(), "h.json")
	require.NoError(t, run(t, "qubo", path, "-w", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"couplings"`)
}

func TestCompareAndWarmstart(t *testing.T) {
	path := writeProblem(t)
	require.NoError(t, run(t, "compare", path))
	require.NoError(t, run(t, "warmstart", path, "-o", "json"))
}

func TestRejectsBadInput(t *testing.T) {
	assert.Error(t, run(t, "solve", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, run(t, "solve", writeProblem(t), "--strategy", "quantum"))
}

func TestRunsAndWatchNeedBackends(t *testing.T) {
	t.Setenv("ASSIGNOPT_DATABASE_URL", "")
	t.Setenv("ASSIGNOPT_REDIS_URL", "")
	assert.ErrorContains(t, run(t, "runs"), "no database configured")
	assert.ErrorContains(t, run(t, "watch"), "no redis configured")
}

func TestSolveWithRateLimitedSampler(t *testing.T) {
	t.Setenv("ASSIGNOPT_SAMPLER_MAX_CALLS_PER_SECOND", "100")
	require.NoError(t, run(t, "solve", writeProblem(t), "--strategy", "sampler", "--label", "limited"))
}

func TestCompareStoresEveryStrategy(t *testing.T) {
	cfg = config.Default()
	logger = zap.NewNop()
	ctx := context.Background()
	doc, err := loadDocument(ctx, writeProblem(t))
	require.NoError(t, err)

	st := store.NewMemory()
	cmp, err := compareStrategies(ctx, doc, "demo", st)
	require.NoError(t, err)

	want := []opt.Strategy{opt.StrategyGreedy, opt.StrategySampler, opt.StrategySamples}
	assert.Equal(t, want, cmp.Strategies)
	assert.Equal(t, []string{"greedy", "sampler", "samples"}, cmp.Completed)
	for _, s := range want {
		assert.Equal(t, cmp.Summaries[s].RunID, cmp.Runs[s].ID, s)
		assert.Equal(t, string(s), cmp.Runs[s].Strategy)
	}
	runs, err := st.ListRuns(ctx, "demo", 0)
	require.NoError(t, err)
	assert.Len(t, runs, len(want))
}

func TestWarmstartBaselineSource(t *testing.T) {
	doc := &dataset.Document{
		Warehouses: []model.WarehouseNode{{ID: "W1", Capacity: model.Capacity(10)}, {ID: "W2", Capacity: model.Capacity(10)}},
		Customers:  []model.CustomerNode{{ID: "C1", Demand: 30}, {ID: "C2", Demand: 40}},
		Distances:  model.DistanceMatrix{{1, 2}, {2, 1}},
	}
	baseline, source, warnings := warmstartBaseline(doc)
	assert.Equal(t, "greedy", source)
	assert.Len(t, baseline, 2)
	assert.True(t, model.HasWarning(warnings, model.InfeasibleRepair))

	doc.Baseline = map[string]string{"C1": "W1", "C2": "W2"}
	baseline, source, warnings = warmstartBaseline(doc)
	assert.Equal(t, "document", source)
	assert.Equal(t, doc.Baseline, baseline)
	assert.Empty(t, warnings)
}
