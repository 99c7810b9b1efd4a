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
package env_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tunglinwood/oasis/pkg/agent"
	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/env"
	"github.com/tunglinwood/oasis/pkg/llm"
	"github.com/tunglinwood/oasis/pkg/platform"
	"github.com/tunglinwood/oasis/pkg/recsys"
)

// scriptedProvider is a deterministic LLM stand-in: every Chat call with
// tools answers with the next scripted tool calls; tool-less calls (the
// interview path) reply with fixed text.
type scriptedProvider struct {
	mu    sync.Mutex
	turns [][]llm.ToolCall
	idx   int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tools) == 0 {
		return &llm.Response{Content: "An interview answer."}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idx >= len(p.turns) {
		return &llm.Response{Content: "nothing to do"}, nil
	}
	calls := p.turns[p.idx]
	p.idx++
	return &llm.Response{ToolCalls: calls, StopReason: "tool_use"}, nil
}

type fixture struct {
	environment *env.Env
	store       *platform.Store
	graph       *agent.AgentGraph
	clk         *clock.TickClock
}

func newFixture(t *testing.T, provider llm.Provider, seeds []agent.SeedProfile) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	store, err := platform.OpenStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := recsys.New(recsys.Config{Type: recsys.TypeRandom, MaxRecPostLen: 10, Seed: 3, Logger: logger})
	require.NoError(t, err)

	ch := channel.New(logger)
	clk := clock.NewTickClock()

	graph, _ := agent.GenerateAgents(seeds, ch, provider, agent.Options{Logger: logger})

	// Self-rating stays open here so scripted turns never depend on which
	// agent drew which response.
	cfg := platform.DefaultConfig()
	cfg.AllowSelfRating = true

	plat := platform.New(store, ch, clk, engine, graph, cfg, logger)
	environment := env.Make(graph, plat, ch, clk, env.Config{Semaphore: 8, Seeds: seeds, Logger: logger})
	return &fixture{environment: environment, store: store, graph: graph, clk: clk}
}

func seedsN(n int) []agent.SeedProfile {
	seeds := make([]agent.SeedProfile, n)
	for i := range seeds {
		seeds[i] = agent.SeedProfile{
			AgentID: int64(i),
			Info:    agent.UserInfo{UserName: "user", Name: "User", Description: "a test user"},
		}
	}
	return seeds
}

func count(t *testing.T, store *platform.Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow(query, args...).Scan(&n))
	return n
}

func TestResetSignsEveryoneUp(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, seedsN(3))

	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))
	defer f.environment.Close(ctx)

	assert.Equal(t, 3, count(t, f.store, "SELECT COUNT(*) FROM user"))
	assert.Equal(t, 3, count(t, f.store, "SELECT COUNT(*) FROM trace WHERE action = 'sign_up'"))
}

func TestResetReplaysSeedRelations(t *testing.T) {
	seeds := seedsN(2)
	seeds[0].FollowingAgentIDs = []int64{1}
	seeds[0].PreviousPosts = []string{"hello from the past"}

	f := newFixture(t, &scriptedProvider{}, seeds)
	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))
	defer f.environment.Close(ctx)

	assert.Equal(t, 1, count(t, f.store, "SELECT COUNT(*) FROM follow WHERE follower_id = 0 AND followee_id = 1"))
	assert.Equal(t, 1, count(t, f.store, "SELECT COUNT(*) FROM post WHERE user_id = 0"))
	// The platform mirrored the committed follow into the graph.
	assert.Equal(t, 1, f.graph.NumEdges())
}

func TestStepRunsInterventionsThenLLMTurns(t *testing.T) {
	provider := &scriptedProvider{turns: [][]llm.ToolCall{
		{{ID: "c1", Name: "like_post", Input: map[string]any{"post_id": float64(1)}}},
		{{ID: "c2", Name: "do_nothing", Input: map[string]any{}}},
		{{ID: "c3", Name: "do_nothing", Input: map[string]any{}}},
	}}
	f := newFixture(t, provider, seedsN(3))

	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))

	err := f.environment.Step(ctx, env.StepActions{
		Interventions: []env.Intervention{
			{AgentID: 0, Action: channel.ActionCreatePost, Args: map[string]any{"content": "seeded by the driver"}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.environment.Close(ctx))

	// The intervention committed and the scripted like landed on it.
	assert.Equal(t, 1, count(t, f.store, "SELECT COUNT(*) FROM post"))
	assert.Equal(t, 1, count(t, f.store, "SELECT num_likes FROM post WHERE post_id = 1"))
	// do_nothing turns traced as well.
	assert.Equal(t, 2, count(t, f.store, "SELECT COUNT(*) FROM trace WHERE action = 'do_nothing'"))
}

// TestInterviewNeverAutoChosen runs several model turns with a permissive
// action set and confirms no interview trace appears; a manual interview
// still writes one.
func TestInterviewNeverAutoChosen(t *testing.T) {
	provider := &scriptedProvider{turns: [][]llm.ToolCall{
		// A malicious or confused model asking for the interview tool is
		// rejected at dispatch.
		{{ID: "c1", Name: "interview", Input: map[string]any{"prompt": "self-interview"}}},
		{{ID: "c2", Name: "create_post", Input: map[string]any{"content": "regular activity"}}},
	}}
	f := newFixture(t, provider, seedsN(2))

	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))

	require.NoError(t, f.environment.Step(ctx, env.StepActions{}))
	assert.Equal(t, 0, count(t, f.store, "SELECT COUNT(*) FROM trace WHERE action = 'interview'"))

	// The driver-issued interview records prompt and response.
	response, err := f.environment.Interview(ctx, 0, "How was your day?")
	require.NoError(t, err)
	assert.Equal(t, "An interview answer.", response)
	assert.Equal(t, 1, count(t, f.store, "SELECT COUNT(*) FROM trace WHERE action = 'interview'"))

	require.NoError(t, f.environment.Close(ctx))
}

func TestStepAdvancesTickClock(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, seedsN(1))

	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))
	defer f.environment.Close(ctx)

	require.NoError(t, f.environment.Step(ctx, env.StepActions{}))
	require.NoError(t, f.environment.Step(ctx, env.StepActions{}))

	assert.EqualValues(t, 2, f.clk.Current())
}

func TestPerAgentScript(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, seedsN(2))

	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))

	err := f.environment.Step(ctx, env.StepActions{
		PerAgent: map[int64][]env.AgentAction{
			0: {
				{Action: channel.ActionCreatePost, Args: map[string]any{"content": "scripted"}},
				{Action: channel.ActionCreateComment, Args: map[string]any{"post_id": float64(1), "content": "my own thread"}},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.environment.Close(ctx))

	assert.Equal(t, 1, count(t, f.store, "SELECT COUNT(*) FROM post"))
	assert.Equal(t, 1, count(t, f.store, "SELECT COUNT(*) FROM comment"))
}

func TestStepFailsOnUnknownAgent(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, seedsN(1))

	ctx := context.Background()
	require.NoError(t, f.environment.Reset(ctx))
	defer f.environment.Close(ctx)

	err := f.environment.Step(ctx, env.StepActions{
		Interventions: []env.Intervention{{AgentID: 99, Action: channel.ActionDoNothing}},
	})
	assert.Error(t, err)
}
