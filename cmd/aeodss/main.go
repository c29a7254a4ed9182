// Command aeodss runs the agent-based Earth-observation scheduling
// simulation, grounded in spirit on YimiaoHao-wator-project/main.go's
// flag-driven CLI, generalized to a spf13/cobra root command.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nanosatlab/aeodss/internal/config"
	"github.com/nanosatlab/aeodss/internal/predictor"
	"github.com/nanosatlab/aeodss/internal/sim"
	"github.com/nanosatlab/aeodss/internal/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		worldSize  float64
		nAgents    int
		seed       int64
		steps      int
		plannerStr string
		logLevel   string
		serve      bool
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "aeodss",
		Short: "Run the agent-based Earth-observation scheduling simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("world-size") {
				cfg.WorldWidth, cfg.WorldHeight = worldSize, worldSize
			}
			if cmd.Flags().Changed("agents") {
				cfg.NAgents = nAgents
			}
			if cmd.Flags().Changed("planner") {
				cfg.PlannerKind = config.PlannerKind(plannerStr)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			configureLogging(cfg.LogLevel)
			runSimulation(cfg, seed, steps, serve, addr)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML configuration file")
	flags.Float64Var(&worldSize, "world-size", 1000, "square world side length")
	flags.IntVar(&nAgents, "agents", 10, "number of agents")
	flags.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	flags.IntVar(&steps, "steps", 1000, "number of simulation ticks to run")
	flags.StringVar(&plannerStr, "planner", "greedy", "planner kind: greedy or ga")
	flags.StringVar(&logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")
	flags.BoolVar(&serve, "serve", false, "start the telemetry websocket server")
	flags.StringVar(&addr, "addr", ":8080", "telemetry server listen address")

	return cmd
}

func configureLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// runSimulation builds a World and runs it for the configured number of
// ticks. A panic from a *predictor.FatalResourceError is the only fatal
// path in this program: every other error condition is logged and
// recovered deeper in the call stack, per spec.md §7.
func runSimulation(cfg config.Config, seed int64, steps int, serve bool, addr string) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*predictor.FatalResourceError); ok {
				log.Fatal().Str("agent", fe.AgentID).Float64("time", fe.Time).
					Float64("resource", fe.Value).Msg("aeodss: fatal resource invariant violation")
			}
			panic(r)
		}
	}()

	w := sim.New(cfg, seed)
	ctx := context.Background()

	var bc *telemetry.Broadcaster
	if serve {
		bc = telemetry.NewBroadcaster()
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", bc.HandleWS)
		go func() {
			log.Info().Str("addr", addr).Msg("aeodss: telemetry server listening")
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error().Err(err).Msg("aeodss: telemetry server stopped")
			}
		}()
	}

	log.Info().Int("agents", cfg.NAgents).Int64("seed", seed).Int("steps", steps).
		Str("planner", string(cfg.PlannerKind)).Msg("aeodss: starting simulation")

	for i := 0; i < steps; i++ {
		w.Tick(ctx)
		if bc != nil {
			bc.Publish(w.Snapshot())
		}
	}

	log.Info().Int("ticks", w.TickCount()).Float64("time", w.Now()).Msg("aeodss: simulation complete")
}
