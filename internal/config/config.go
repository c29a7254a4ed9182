// Package config holds the immutable simulation configuration.
//
// Every tunable named in the specification's external-interfaces table lives
// here as a struct field instead of the package-level static state the
// original C++ prototype used. Callers load a Config once (from YAML or
// defaults) and thread the same value into every constructor that needs it;
// nothing in this package is mutated after Load returns.
package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// CrossoverOp selects the GA crossover operator.
type CrossoverOp string

const (
	CrossoverSinglePoint CrossoverOp = "single_point"
	CrossoverMultiPoint  CrossoverOp = "multi_point"
	CrossoverUniform     CrossoverOp = "uniform"
)

// ParentSelOp selects the GA parent-selection operator. Only tournament is
// implemented; the others are named so configuration files can be validated
// against the full enumeration from the specification.
type ParentSelOp string

const (
	ParentSelTournament               ParentSelOp = "tournament"
	ParentSelFitnessProportionalWheel ParentSelOp = "fitness_proportional_roulette_wheel"
	ParentSelStochasticUniversal      ParentSelOp = "stochastic_universal"
)

// EnvironSelOp selects the GA environmental-selection operator.
type EnvironSelOp string

const (
	EnvironSelTruncation  EnvironSelOp = "truncation"
	EnvironSelGenerational EnvironSelOp = "generational"
)

// PlannerKind selects which planner an Agent uses during its plan phase.
type PlannerKind string

const (
	PlannerGreedy PlannerKind = "greedy"
	PlannerGA     PlannerKind = "ga"
)

// Config is the full set of compile-time constants enumerated in the
// specification's external-interfaces table, made runtime-configurable.
type Config struct {
	WorldWidth  float64 `yaml:"world_width"`
	WorldHeight float64 `yaml:"world_height"`

	ModelUnitySize float64 `yaml:"model_unity_size"`

	NAgents int `yaml:"n_agents"`

	AgentSwathMin float64 `yaml:"agent_swath_min"`
	AgentSwathMax float64 `yaml:"agent_swath_max"`
	AgentRangeMin float64 `yaml:"agent_range_min"`
	AgentRangeMax float64 `yaml:"agent_range_max"`
	AgentSpeed    float64 `yaml:"agent_speed"`

	TimeStep              float64 `yaml:"time_step"`
	AgentPropagationSize  int     `yaml:"agent_propagation_size"`

	CapacityRestore float64 `yaml:"capacity_restore"`
	CapacityConsume float64 `yaml:"capacity_consume"`
	MaxCapacity     float64 `yaml:"max_capacity"`

	MaxRevisitTime float64 `yaml:"max_revisit_time"`

	MaxTasks         int `yaml:"max_tasks"`
	MaxTaskDuration  int `yaml:"max_task_duration"`

	GAGenerations      int         `yaml:"ga_generations"`
	GAPopulationSize   int         `yaml:"ga_population_size"`
	GACrossoverPoints  int         `yaml:"ga_crossover_points"`
	GATournamentK      int         `yaml:"ga_tournament_k"`
	GAMutationRateTimes  float64   `yaml:"ga_mutation_rate_times"`
	GAMutationRateEnable float64   `yaml:"ga_mutation_rate_enable"`
	GAGaussianMutationStd float64  `yaml:"ga_gaussian_mutation_std"`
	GAGaussianMutationK1  float64  `yaml:"ga_gaussian_mutation_k1"`
	GAGaussianMutationK2  float64  `yaml:"ga_gaussian_mutation_k2"`
	GACrossoverOp   CrossoverOp    `yaml:"ga_crossover_op"`
	GAParentSelOp   ParentSelOp    `yaml:"ga_parentsel_op"`
	GAEnvironSelOp  EnvironSelOp   `yaml:"ga_environsel_op"`

	PlannerKind PlannerKind `yaml:"planner_kind"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration the simulation runs with when no YAML
// file is supplied, matching the constants used by the original prototype.
func Default() Config {
	return Config{
		WorldWidth:  1000,
		WorldHeight: 1000,

		ModelUnitySize: 10,

		NAgents: 10,

		AgentSwathMin: 20,
		AgentSwathMax: 60,
		AgentRangeMin: 100,
		AgentRangeMax: 300,
		AgentSpeed:    5,

		TimeStep:             1,
		AgentPropagationSize: 300,

		CapacityRestore: 0.05,
		CapacityConsume: 0.10,
		MaxCapacity:     10,

		MaxRevisitTime: 500,

		MaxTasks:        8,
		MaxTaskDuration: 200,

		GAGenerations:         100,
		GAPopulationSize:      40,
		GACrossoverPoints:     2,
		GATournamentK:         2,
		GAMutationRateTimes:   0.1,
		GAMutationRateEnable:  0.05,
		GAGaussianMutationStd: 1.0,
		GAGaussianMutationK1:  5.0,
		GAGaussianMutationK2:  5.0,
		GACrossoverOp:  CrossoverMultiPoint,
		GAParentSelOp:  ParentSelTournament,
		GAEnvironSelOp: EnvironSelTruncation,

		PlannerKind: PlannerGreedy,

		LogLevel: "info",
	}
}

// Load reads a YAML configuration file, overlays it on top of Default, and
// clamps any inconsistent values. Configuration inconsistencies are never
// fatal: they are logged as warnings and silently corrected, per the
// specification's error-handling design.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		cfg.clamp()
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.ModelUnitySize <= 0 {
		log.Warn().Msg("config: model_unity_size <= 0, defaulting to 1")
		c.ModelUnitySize = 1
	}
	if c.MaxTasks <= 0 {
		log.Warn().Msg("config: max_tasks <= 0, defaulting to 1")
		c.MaxTasks = 1
	}
	if c.GACrossoverPoints >= c.MaxTasks {
		log.Warn().
			Int("ga_crossover_points", c.GACrossoverPoints).
			Int("max_tasks", c.MaxTasks).
			Msg("config: ga_crossover_points >= max_tasks, resetting to a valid value")
		if c.MaxTasks > 1 {
			c.GACrossoverPoints = c.MaxTasks - 1
		} else {
			c.GACrossoverPoints = 0
		}
	}
	if c.GAPopulationSize <= 0 {
		log.Warn().Msg("config: ga_population_size <= 0, defaulting to 2")
		c.GAPopulationSize = 2
	}
	if c.GAPopulationSize%2 != 0 {
		log.Warn().Int("ga_population_size", c.GAPopulationSize).
			Msg("config: ga_population_size must be even for pairwise mating, incrementing by 1")
		c.GAPopulationSize++
	}
	if c.GATournamentK <= 0 {
		log.Warn().Msg("config: ga_tournament_k <= 0, defaulting to 2")
		c.GATournamentK = 2
	}
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		log.Warn().Msg("config: world has zero or negative dimensions, defaulting to 1000x1000")
		c.WorldWidth = 1000
		c.WorldHeight = 1000
	}
	if c.MaxTaskDuration <= 0 {
		c.MaxTaskDuration = 1
	}
}

// ModelWidth returns the environment-model grid width derived from the world
// width and the model/world ratio (spec.md EnvModel invariant).
func (c Config) ModelWidth() int {
	w := int(c.WorldWidth / c.ModelUnitySize)
	if w <= 0 {
		w = 1
	}
	return w
}

// ModelHeight returns the environment-model grid height.
func (c Config) ModelHeight() int {
	h := int(c.WorldHeight / c.ModelUnitySize)
	if h <= 0 {
		h = 1
	}
	return h
}
