// Package config loads assignopt settings from YAML, .env files and
// ASSIGNOPT_* environment variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quboassign/internal/opt"
	"quboassign/internal/qubo"
	"quboassign/internal/reduce"
	"quboassign/internal/repair"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASSIGNOPT_"

type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Penalty   PenaltyConfig   `yaml:"penalty"`
	Reduction ReductionConfig `yaml:"reduction"`
	Repair    RepairConfig    `yaml:"repair"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Events    EventsConfig    `yaml:"events"`
	Store     StoreConfig     `yaml:"store"`
}

type EngineConfig struct {
	Strategy  string `yaml:"strategy"`
	Seed      int64  `yaml:"seed"`
	Layers    int    `yaml:"layers"`
	WarmStart bool   `yaml:"warmStart"`
	PlanTours bool   `yaml:"planTours"`
}

type PenaltyConfig struct {
	Mode    string  `yaml:"mode"` // auto | manual
	Lambda1 float64 `yaml:"lambda1"`
	Lambda2 float64 `yaml:"lambda2"`
}

type ReductionConfig struct {
	Clustering         bool    `yaml:"clustering"`
	ClusterThreshold   int     `yaml:"clusterThreshold"`
	MaxClusterSize     int     `yaml:"maxClusterSize"`
	KMeansIterations   int     `yaml:"kmeansIterations"`
	Elimination        bool    `yaml:"elimination"`
	DominanceThreshold float64 `yaml:"dominanceThreshold"`
}

type RepairConfig struct {
	MaxIterations int `yaml:"maxIterations"`
}

type SamplerConfig struct {
	Reads       int     `yaml:"reads"`
	Sweeps      int     `yaml:"sweeps"`
	InitialTemp float64 `yaml:"initialTemp"`
	Cooling     float64 `yaml:"cooling"`
	// MaxCallsPerSecond meters sampler calls; zero disables the limit.
	MaxCallsPerSecond float64 `yaml:"maxCallsPerSecond"`
	Burst             int     `yaml:"burst"`
}

type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json | console
	File       string `yaml:"file"`   // empty means stderr
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// EventsConfig selects where run progress goes. Without a Redis URL
// progress is only logged at debug level.
type EventsConfig struct {
	RedisURL string `yaml:"redisUrl"`
}

// StoreConfig enables run persistence when DatabaseURL is set.
type StoreConfig struct {
	DatabaseURL string `yaml:"databaseUrl"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Engine:  EngineConfig{Strategy: string(opt.StrategyAuto), Seed: reduce.DefaultSeed, Layers: opt.DefaultLayers},
		Penalty: PenaltyConfig{Mode: "auto"},
		Reduction: ReductionConfig{
			ClusterThreshold:   50,
			MaxClusterSize:     20,
			KMeansIterations:   100,
			DominanceThreshold: reduce.DefaultDominanceThreshold,
		},
		Repair:  RepairConfig{MaxIterations: repair.DefaultMaxIterations},
		Sampler: SamplerConfig{Reads: 16, Sweeps: 200, Cooling: 0.95, Burst: 1},
		Log:     LogConfig{Level: "info", Format: "console", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 14},
	}
}

// Load overlays the YAML file at path onto Default. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv loads envFile (a missing file is fine) without overriding
// variables already set, then applies ASSIGNOPT_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, set func(string) error) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			if err := set(strings.TrimSpace(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}
	intInto := func(dst *int) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.Atoi(s); return }
	}
	floatInto := func(dst *float64) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.ParseFloat(s, 64); return }
	}
	boolInto := func(dst *bool) func(string) error {
		return func(s string) (err error) { *dst, err = strconv.ParseBool(s); return }
	}

	str("STRATEGY", &c.Engine.Strategy)
	num("SEED", func(s string) (err error) { c.Engine.Seed, err = strconv.ParseInt(s, 10, 64); return })
	num("LAYERS", intInto(&c.Engine.Layers))
	num("WARM_START", boolInto(&c.Engine.WarmStart))
	num("PLAN_TOURS", boolInto(&c.Engine.PlanTours))
	str("PENALTY_MODE", &c.Penalty.Mode)
	num("LAMBDA1", floatInto(&c.Penalty.Lambda1))
	num("LAMBDA2", floatInto(&c.Penalty.Lambda2))
	num("CLUSTERING", boolInto(&c.Reduction.Clustering))
	num("CLUSTER_THRESHOLD", intInto(&c.Reduction.ClusterThreshold))
	num("MAX_CLUSTER_SIZE", intInto(&c.Reduction.MaxClusterSize))
	num("ELIMINATION", boolInto(&c.Reduction.Elimination))
	num("DOMINANCE_THRESHOLD", floatInto(&c.Reduction.DominanceThreshold))
	num("REPAIR_MAX_ITERATIONS", intInto(&c.Repair.MaxIterations))
	num("SAMPLER_READS", intInto(&c.Sampler.Reads))
	num("SAMPLER_SWEEPS", intInto(&c.Sampler.Sweeps))
	num("SAMPLER_MAX_CALLS_PER_SECOND", floatInto(&c.Sampler.MaxCallsPerSecond))
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	str("METRICS_TEXTFILE", &c.Metrics.Textfile)
	str("REDIS_URL", &c.Events.RedisURL)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	return errors.Join(errs...)
}

// Validate rejects out-of-range values.
func (c Config) Validate() error {
	var errs []error
	if _, err := opt.ParseStrategy(c.Engine.Strategy); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.Layers < 1 {
		errs = append(errs, fmt.Errorf("engine.layers must be >= 1"))
	}
	if _, err := c.Penalty.PenaltyMode(); err != nil {
		errs = append(errs, err)
	}
	r := c.Reduction
	if r.ClusterThreshold < 0 || r.MaxClusterSize < 1 || r.KMeansIterations < 1 {
		errs = append(errs, fmt.Errorf("reduction: clusterThreshold >= 0, maxClusterSize >= 1 and kmeansIterations >= 1 required"))
	}
	if r.DominanceThreshold < 1 {
		errs = append(errs, fmt.Errorf("reduction.dominanceThreshold must be >= 1"))
	}
	if c.Repair.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("repair.maxIterations must be >= 1"))
	}
	if c.Sampler.Reads < 1 || c.Sampler.Sweeps < 1 {
		errs = append(errs, fmt.Errorf("sampler.reads and sampler.sweeps must be >= 1"))
	}
	if c.Sampler.Cooling <= 0 || c.Sampler.Cooling >= 1 {
		errs = append(errs, fmt.Errorf("sampler.cooling must be in (0,1)"))
	}
	if c.Sampler.MaxCallsPerSecond < 0 || c.Sampler.Burst < 0 {
		errs = append(errs, fmt.Errorf("sampler.maxCallsPerSecond and sampler.burst must be >= 0"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console"))
	}
	return errors.Join(errs...)
}

// PenaltyMode converts the string form into the tagged mode.
func (p PenaltyConfig) PenaltyMode() (qubo.PenaltyMode, error) {
	switch strings.ToLower(strings.TrimSpace(p.Mode)) {
	case "", "auto":
		return qubo.AutoPenalty{}, nil
	case "manual":
		if p.Lambda1 <= 0 || p.Lambda2 < 0 {
			return nil, fmt.Errorf("penalty: manual mode needs lambda1 > 0 and lambda2 >= 0")
		}
		return qubo.ManualPenalty{Lambda1: p.Lambda1, Lambda2: p.Lambda2}, nil
	default:
		return nil, fmt.Errorf("penalty.mode %q must be auto or manual", p.Mode)
	}
}

// Options converts c into engine options. Call Validate first.
func (c Config) Options() opt.Options {
	strategy, _ := opt.ParseStrategy(c.Engine.Strategy)
	mode, _ := c.Penalty.PenaltyMode()
	return opt.Options{
		Strategy: strategy,
		Penalty:  mode,
		Reduction: reduce.Options{
			Clustering:       c.Reduction.Clustering,
			ClusterThreshold: c.Reduction.ClusterThreshold,
			Cluster: reduce.ClusterOptions{
				MaxClusterSize: c.Reduction.MaxClusterSize,
				MaxIterations:  c.Reduction.KMeansIterations,
				Seed:           c.Engine.Seed,
			},
			Elimination:        c.Reduction.Elimination,
			DominanceThreshold: c.Reduction.DominanceThreshold,
		},
		Repair:         repair.Options{MaxIterations: c.Repair.MaxIterations},
		WarmStart:      c.Engine.WarmStart,
		Layers:         c.Engine.Layers,
		PlanTours:      c.Engine.PlanTours,
		TourIterations: 50,
		Seed:           c.Engine.Seed,
	}
}

// AnnealingSampler builds the built-in sampler from c.
func (c Config) AnnealingSampler() opt.AnnealingSampler {
	return opt.AnnealingSampler{
		Reads:       c.Sampler.Reads,
		Sweeps:      c.Sampler.Sweeps,
		InitialTemp: c.Sampler.InitialTemp,
		Cooling:     c.Sampler.Cooling,
		Seed:        c.Engine.Seed,
	}
}

// NewSampler returns the built-in sampler, rate limited when configured.
func (c Config) NewSampler() opt.Sampler {
	return opt.RateLimited(c.AnnealingSampler(), opt.NewLimiter(c.Sampler.MaxCallsPerSecond, c.Sampler.Burst))
}
