// Copyright 2026 The OASIS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/agent"
	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/env"
	"github.com/tunglinwood/oasis/pkg/platform"
)

// redditRefreshSchedule is the real-time cadence of rec refreshes in reddit
// mode, on top of the per-step refresh.
const redditRefreshSchedule = "@every 1m"

type simMode int

const (
	modeTwitter simMode = iota
	modeReddit
)

// runSimulation assembles the whole stack from configuration and drives it
// for the configured number of timesteps.
func runSimulation(mode simMode) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Profiles and agents.
	var profiles []agent.SeedProfile
	switch mode {
	case modeTwitter:
		profiles, err = agent.LoadTwitterProfiles(cfg.Simulation.ProfilePath)
	case modeReddit:
		profiles, err = agent.LoadRedditProfiles(cfg.Simulation.ProfilePath)
	}
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles loaded from %s", cfg.Simulation.ProfilePath)
	}

	provider, err := buildProvider(cfg.Inference)
	if err != nil {
		return err
	}
	engine, recsysType, err := buildEngine(cfg.Simulation, cfg.Embedding, logger)
	if err != nil {
		return err
	}

	var clk clock.Clock
	switch mode {
	case modeTwitter:
		clk = clock.NewTickClock()
	case modeReddit:
		factor := cfg.Simulation.ClockFactor
		if factor <= 0 {
			factor = 60
		}
		clk = clock.NewScaledClock(time.Now(), factor)
	}

	ch := channel.New(logger.Named("channel"))
	graph, _ := agent.GenerateAgents(profiles, ch, provider, agent.Options{
		Logger: logger.Named("agent"),
	})

	store, err := platform.OpenStore(cfg.Simulation.DBPath, logger.Named("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	plat := platform.New(store, ch, clk, engine, graph,
		platformConfig(cfg.Simulation, recsysType), logger.Named("platform"))

	environment := env.Make(graph, plat, ch, clk, env.Config{
		Semaphore: cfg.Simulation.Semaphore,
		Seeds:     profiles,
		Logger:    logger.Named("env"),
	})
	if err := environment.Reset(ctx); err != nil {
		return err
	}

	// Interventions dropped into the watched directory apply on the next
	// step boundary.
	var watcher *interventionWatcher
	if dir := cfg.Simulation.InterventionsDir; dir != "" {
		watcher, err = watchInterventions(dir, logger.Named("interventions"))
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	// Reddit mode refreshes the rec table on a real-time cadence as well,
	// matching its scaled clock.
	if mode == modeReddit {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(redditRefreshSchedule, func() {
			if err := environment.RefreshRecTable(ctx); err != nil {
				logger.Warn("scheduled rec refresh failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	for step := 0; step < cfg.Simulation.NumTimesteps; step++ {
		if ctx.Err() != nil {
			break
		}

		var interventions []env.Intervention
		if watcher != nil {
			interventions = watcher.Pending()
		}

		logger.Info("running timestep",
			zap.Int("step", step),
			zap.Int("interventions", len(interventions)))

		if err := environment.Step(ctx, env.StepActions{Interventions: interventions}); err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("step %d failed: %w", step, err)
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return environment.Close(closeCtx)
}
