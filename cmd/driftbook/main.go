// Command driftbook runs a price-time-priority matching engine driven by
// a population of synthetic agents, wiring config → engine → transport →
// driver the way the teacher's cmd/main.go wires config → engine → net.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"driftbook/internal/agents"
	"driftbook/internal/book"
	"driftbook/internal/common"
	"driftbook/internal/config"
	"driftbook/internal/replay"
	"driftbook/internal/sim"
	"driftbook/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error().Err(err).Msg("loading configuration")
		return 1
	}

	runID := uuid.New()
	log = log.With().Str("run", runID.String()).Logger()

	engine := book.NewEngine()
	notify := book.NewPrettyNotifier(log)
	tr := transport.New(engine, notify, cfg.TransportDelayLambda)

	tMax := common.Time(cfg.TMaxSeconds * 1e9)
	driver := sim.New(engine, tr, tMax, cfg.Seed, log)
	driver.Depth = cfg.Depth
	driver.Record = cfg.Output.SnapshotMatrix != ""

	if err := seedAgents(driver, cfg); err != nil {
		log.Error().Err(err).Msg("seeding agents")
		return 1
	}

	t, ctx := tomb.WithContext(ctx)
	t.Go(func() error {
		return driver.Run(ctx)
	})

	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("run failed")
		return 1
	}

	if err := writeOutputs(driver, cfg); err != nil {
		log.Error().Err(err).Msg("writing outputs")
		return 1
	}

	log.Info().Int("ticks", len(driver.History)).Msg("run complete")
	return 0
}

// seedAgents spawns the configured agent population (spec.md §6), binding
// each one to the driver's shared market snapshot before registering it.
func seedAgents(driver *sim.Driver, cfg *config.Config) error {
	var cid common.ClientID = 1

	for i := 0; i < cfg.Agents.NumPriceMakers; i++ {
		p := cfg.Agents.PriceMaker
		agent := agents.NewPriceMaker(cid, agents.PriceMakerParams{
			PlacementLambda:    p.PlacementLambda,
			CancellationLambda: p.CancellationLambda,
			PriceScale:         p.PriceScale,
			SizeMean:           p.SizePoissonMean,
			AggressiveProb:     p.AggressiveProb,
			MaxOutstanding:     p.MaxOutstanding,
		}, driver.Market, driver.RNG())
		if err := driver.AddAgent(agent); err != nil {
			return fmt.Errorf("adding price maker %d: %w", cid, err)
		}
		cid++
	}

	for i := 0; i < cfg.Agents.NumTrendFollowers; i++ {
		tf := cfg.Agents.TrendFollower
		agent := agents.NewTrendFollower(cid, tf.EMAPeriod, tf.Spread, driver.Market)
		if err := driver.AddAgent(agent); err != nil {
			return fmt.Errorf("adding trend follower %d: %w", cid, err)
		}
		cid++
	}

	for i := 0; i < cfg.Agents.NumMarketMakers; i++ {
		agent := agents.NewMarketMaker(cid, driver.Market)
		if err := driver.AddAgent(agent); err != nil {
			return fmt.Errorf("adding market maker %d: %w", cid, err)
		}
		cid++
	}

	return nil
}

// writeOutputs renders the optional recording sinks of spec.md §6: the
// human-readable market row log and the dense snapshot matrix.
func writeOutputs(driver *sim.Driver, cfg *config.Config) error {
	if cfg.Output.MarketRows != "" {
		f, err := os.Create(cfg.Output.MarketRows)
		if err != nil {
			return fmt.Errorf("opening market rows output: %w", err)
		}
		defer f.Close()
		for _, snap := range driver.History {
			if _, err := fmt.Fprintln(f, replay.RenderRow(snap)); err != nil {
				return fmt.Errorf("writing market row: %w", err)
			}
		}
	}

	if cfg.Output.SnapshotMatrix != "" {
		matrix := replay.BuildSnapshotMatrix(driver.History, driver.Depth)
		f, err := os.Create(cfg.Output.SnapshotMatrix)
		if err != nil {
			return fmt.Errorf("opening snapshot matrix output: %w", err)
		}
		defer f.Close()
		for _, row := range matrix.Rows {
			for i, v := range row {
				if i > 0 {
					fmt.Fprint(f, ",")
				}
				fmt.Fprintf(f, "%g", v)
			}
			fmt.Fprintln(f)
		}
	}

	return nil
}
