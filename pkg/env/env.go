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

// Package env drives the simulation forward one timestep at a time:
// scripted interventions, a recommender refresh, then a bounded parallel
// fan-out of model-driven agent turns.
package env

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tunglinwood/oasis/pkg/agent"
	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/platform"
)

// DefaultSemaphore bounds concurrent model calls per step.
const DefaultSemaphore = 128

// systemAgentID marks requests issued by the driver itself.
const systemAgentID = -1

// Intervention is one scripted action issued on behalf of an agent,
// bypassing model choice.
type Intervention struct {
	AgentID int64
	Action  channel.ActionType
	Args    map[string]any
}

// AgentAction is one entry of a per-agent step script: either a
// model-driven turn (LLM true) or a manual action.
type AgentAction struct {
	LLM    bool
	Action channel.ActionType
	Args   map[string]any
}

// StepActions describes one timestep. When PerAgent is non-nil it fully
// scripts the step; otherwise ActivateAgents (nil meaning every agent)
// selects who takes a model-driven turn after Interventions commit.
type StepActions struct {
	ActivateAgents []int64
	Interventions  []Intervention
	PerAgent       map[int64][]AgentAction
}

// Config tunes the driver.
type Config struct {
	// Semaphore bounds concurrent model-driven turns. Default 128.
	Semaphore int
	// Seeds replays ingested profile relations (follows, prior posts)
	// during Reset.
	Seeds  []agent.SeedProfile
	Logger *zap.Logger
}

// Env is the outer simulation loop.
type Env struct {
	graph     *agent.AgentGraph
	plat      *platform.Platform
	ch        *channel.Channel
	clk       clock.Clock
	seeds     []agent.SeedProfile
	semaphore int
	logger    *zap.Logger

	platformErr chan error
}

// Make assembles an environment over an already-constructed platform.
func Make(graph *agent.AgentGraph, plat *platform.Platform, ch *channel.Channel, clk clock.Clock, cfg Config) *Env {
	if cfg.Semaphore <= 0 {
		cfg.Semaphore = DefaultSemaphore
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Env{
		graph:       graph,
		plat:        plat,
		ch:          ch,
		clk:         clk,
		seeds:       cfg.Seeds,
		semaphore:   cfg.Semaphore,
		logger:      cfg.Logger,
		platformErr: make(chan error, 1),
	}
}

// Reset starts the platform consumer and signs every agent up, then
// replays seed relations. It must be called exactly once before Step.
func (e *Env) Reset(ctx context.Context) error {
	go func() {
		e.platformErr <- e.plat.Run(ctx)
	}()

	agents := e.graph.GetAgents()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.semaphore)
	for _, a := range agents {
		g.Go(func() error {
			return a.SignUp(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sign-up failed: %w", err)
	}

	if err := e.replaySeeds(ctx); err != nil {
		return err
	}

	e.logger.Info("environment reset", zap.Int("agents", len(agents)))
	return nil
}

// replaySeeds turns ingested profile data into platform state: declared
// follow relations and each user's prior posts.
func (e *Env) replaySeeds(ctx context.Context) error {
	for _, seed := range e.seeds {
		a := e.graph.GetAgent(seed.AgentID)
		if a == nil {
			continue
		}
		for _, followee := range seed.FollowingAgentIDs {
			if _, err := a.PerformAction(ctx, channel.ActionFollow, map[string]any{"followee_id": followee}); err != nil {
				return fmt.Errorf("seed follow failed: %w", err)
			}
		}
		for _, content := range seed.PreviousPosts {
			if _, err := a.PerformAction(ctx, channel.ActionCreatePost, map[string]any{"content": content}); err != nil {
				return fmt.Errorf("seed post failed: %w", err)
			}
		}
	}
	return nil
}

// Step advances the simulation one timestep.
func (e *Env) Step(ctx context.Context, actions StepActions) error {
	// Scripted interventions commit first, in whatever order the platform
	// consumer picks them up.
	if err := e.runInterventions(ctx, actions.Interventions); err != nil {
		return err
	}

	if err := e.RefreshRecTable(ctx); err != nil {
		return err
	}

	if actions.PerAgent != nil {
		if err := e.runPerAgent(ctx, actions.PerAgent); err != nil {
			return err
		}
	} else {
		if err := e.runLLMTurns(ctx, actions.ActivateAgents); err != nil {
			return err
		}
	}

	if tick, ok := e.clk.(*clock.TickClock); ok {
		tick.Advance()
	}
	return nil
}

// RefreshRecTable asks the platform to recompute every rec slate.
func (e *Env) RefreshRecTable(ctx context.Context) error {
	result, err := e.ch.Send(ctx, systemAgentID, nil, channel.ActionUpdateRecTable)
	if err != nil {
		return fmt.Errorf("rec refresh failed: %w", err)
	}
	if res, ok := result.(map[string]any); ok {
		if ok, _ := res["success"].(bool); !ok {
			reason, _ := res["error"].(string)
			return fmt.Errorf("rec refresh failed: %s", reason)
		}
	}
	return nil
}

// Interview asks one agent a question out-of-band and records the exchange
// as a trace row.
func (e *Env) Interview(ctx context.Context, agentID int64, prompt string) (string, error) {
	a := e.graph.GetAgent(agentID)
	if a == nil {
		return "", fmt.Errorf("unknown agent %d", agentID)
	}
	return a.Interview(ctx, prompt)
}

func (e *Env) runInterventions(ctx context.Context, interventions []Intervention) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.semaphore)
	for _, iv := range interventions {
		g.Go(func() error {
			a := e.graph.GetAgent(iv.AgentID)
			if a == nil {
				return fmt.Errorf("unknown agent %d", iv.AgentID)
			}
			if iv.Action == channel.ActionInterview {
				prompt, _ := iv.Args["prompt"].(string)
				_, err := a.Interview(gctx, prompt)
				return err
			}
			_, err := a.PerformAction(gctx, iv.Action, iv.Args)
			return err
		})
	}
	return g.Wait()
}

// runLLMTurns fans out model-driven turns for the activated agents under
// the semaphore. Per-agent failures are logged and tolerated.
func (e *Env) runLLMTurns(ctx context.Context, activate []int64) error {
	agents := e.graph.GetAgents(activate...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.semaphore)
	for _, a := range agents {
		g.Go(func() error {
			if err := a.PerformActionByLLM(gctx); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.logger.Warn("agent turn failed", zap.Int64("agent_id", a.ID), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// runPerAgent executes a fully scripted step: each listed agent runs its
// actions in order, different agents in parallel.
func (e *Env) runPerAgent(ctx context.Context, script map[int64][]AgentAction) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.semaphore)
	for agentID, actions := range script {
		g.Go(func() error {
			a := e.graph.GetAgent(agentID)
			if a == nil {
				return fmt.Errorf("unknown agent %d", agentID)
			}
			for _, action := range actions {
				if action.LLM {
					if err := a.PerformActionByLLM(gctx); err != nil {
						return err
					}
					continue
				}
				if action.Action == channel.ActionInterview {
					prompt, _ := action.Args["prompt"].(string)
					if _, err := a.Interview(gctx, prompt); err != nil {
						return err
					}
					continue
				}
				if _, err := a.PerformAction(gctx, action.Action, action.Args); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Close drains the platform via the exit tag and shuts the channel down.
func (e *Env) Close(ctx context.Context) error {
	if err := e.ch.Post(ctx, systemAgentID, nil, channel.ActionExit); err != nil {
		return err
	}
	select {
	case err := <-e.platformErr:
		e.ch.Close()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
