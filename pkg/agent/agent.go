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

// Package agent implements the model-driven users of the simulation. An
// agent holds no platform state: everything it knows about the world comes
// back over the channel, and every action it takes goes out over it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/llm"
	"github.com/tunglinwood/oasis/pkg/platform"
)

// maxEnvPromptTokens caps the observation text handed to the model.
const maxEnvPromptTokens = 4096

// promptEncoding is the tokenizer used for the prompt budget.
const promptEncoding = "cl100k_base"

// Agent is one simulated user.
type Agent struct {
	ID   int64
	Info UserInfo

	ch       *channel.Channel
	provider llm.Provider
	actions  []channel.ActionType
	logger   *zap.Logger

	actionPrompt string
	encoder      *tiktoken.Tiktoken
}

// Options tunes agent construction.
type Options struct {
	// Actions is the permitted action set. Empty means DefaultActions.
	Actions []channel.ActionType
	// ActionPrompt overrides the objective section of the system prompt.
	ActionPrompt string
	Logger       *zap.Logger
}

// DefaultActions is the reference permitted action set for model-driven
// turns.
var DefaultActions = []channel.ActionType{
	channel.ActionCreatePost,
	channel.ActionRepost,
	channel.ActionQuotePost,
	channel.ActionLikePost,
	channel.ActionDislikePost,
	channel.ActionCreateComment,
	channel.ActionLikeComment,
	channel.ActionDislikeComment,
	channel.ActionFollow,
	channel.ActionUnfollow,
	channel.ActionMute,
	channel.ActionSearchPosts,
	channel.ActionSearchUser,
	channel.ActionTrend,
	channel.ActionDoNothing,
}

// New creates an agent bound to a channel and an LLM provider.
func New(id int64, info UserInfo, ch *channel.Channel, provider llm.Provider, opts Options) *Agent {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	actions := opts.Actions
	if len(actions) == 0 {
		actions = DefaultActions
	}

	// The tokenizer download is cached process-wide by tiktoken; a failure
	// only disables the prompt budget.
	encoder, err := tiktoken.GetEncoding(promptEncoding)
	if err != nil {
		opts.Logger.Warn("tokenizer unavailable, prompt budget disabled", zap.Error(err))
	}

	return &Agent{
		ID:           id,
		Info:         info,
		ch:           ch,
		provider:     provider,
		actions:      actions,
		logger:       opts.Logger.With(zap.Int64("agent_id", id)),
		actionPrompt: opts.ActionPrompt,
		encoder:      encoder,
	}
}

// Actions returns the permitted action set.
func (a *Agent) Actions() []channel.ActionType {
	return a.actions
}

// SignUp registers the agent's user row with the platform.
func (a *Agent) SignUp(ctx context.Context) error {
	result, err := a.ch.Send(ctx, a.ID, platform.SignUpPayload{
		UserName: a.Info.UserName,
		Name:     a.Info.Name,
		Bio:      a.Info.Description,
	}, channel.ActionSignUp)
	if err != nil {
		return err
	}
	return resultError("sign_up", result)
}

// PerformActionByLLM observes the environment, asks the model for tool
// calls, and dispatches each of them. Model failures skip the turn; a
// cancelled ctx abandons in-flight work without touching committed state.
func (a *Agent) PerformActionByLLM(ctx context.Context) error {
	envPrompt := a.observe(ctx)

	messages := []llm.Message{
		{Role: "system", Content: a.Info.ToSystemMessage(a.actionPrompt)},
		{Role: "user", Content: "Please perform social media actions after observing the " +
			"platform environments. Here is your social media environment: " + envPrompt},
	}

	resp, err := a.provider.Chat(ctx, messages, ToolsFor(a.actions))
	if err != nil {
		a.logger.Warn("model call failed, skipping turn", zap.Error(err))
		return nil
	}

	for _, call := range resp.ToolCalls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := a.dispatch(ctx, call); err != nil {
			a.logger.Warn("tool call dispatch failed",
				zap.String("tool", call.Name),
				zap.Error(err))
		}
	}
	return nil
}

// PerformAction issues one named action with raw arguments, bypassing the
// model. Interventions come through here; interviews go through Interview.
func (a *Agent) PerformAction(ctx context.Context, action channel.ActionType, args map[string]any) (map[string]any, error) {
	payload, err := payloadFor(action, args)
	if err != nil {
		return nil, err
	}
	result, err := a.ch.Send(ctx, a.ID, payload, action)
	if err != nil {
		return nil, err
	}

	res, _ := result.(map[string]any)
	return res, nil
}

// Interview asks the agent a question out-of-band: a one-shot completion
// against the persona, recorded on the platform as an interview trace.
func (a *Agent) Interview(ctx context.Context, prompt string) (string, error) {
	response, err := llm.Complete(ctx, a.provider, a.Info.ToSystemMessage(a.actionPrompt), prompt)
	if err != nil {
		return "", fmt.Errorf("interview completion failed: %w", err)
	}

	result, err := a.ch.Send(ctx, a.ID, platform.InterviewPayload{
		Prompt:   prompt,
		Response: response,
	}, channel.ActionInterview)
	if err != nil {
		return "", err
	}
	if err := resultError("interview", result); err != nil {
		return "", err
	}
	return response, nil
}

// observe gathers the agent's view of the platform: its current feed plus
// group messages, rendered as JSON and clipped to the prompt budget.
func (a *Agent) observe(ctx context.Context) string {
	var view struct {
		Posts         any `json:"posts,omitempty"`
		GroupMessages any `json:"group_messages,omitempty"`
	}

	if result, err := a.ch.Send(ctx, a.ID, nil, channel.ActionRefresh); err == nil {
		if res, ok := result.(map[string]any); ok && res["posts"] != nil {
			view.Posts = res["posts"]
		}
	}
	if result, err := a.ch.Send(ctx, a.ID, nil, channel.ActionListenFromGroup); err == nil {
		if res, ok := result.(map[string]any); ok && res["messages"] != nil {
			view.GroupMessages = res["messages"]
		}
	}

	blob, err := json.Marshal(view)
	if err != nil {
		return "{}"
	}
	return a.clipToBudget(string(blob))
}

// clipToBudget truncates the observation to maxEnvPromptTokens.
func (a *Agent) clipToBudget(text string) string {
	if a.encoder == nil {
		return text
	}
	tokens := a.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxEnvPromptTokens {
		return text
	}
	return a.encoder.Decode(tokens[:maxEnvPromptTokens])
}

// dispatch validates one model tool call and sends it to the platform.
func (a *Agent) dispatch(ctx context.Context, call llm.ToolCall) error {
	action, ok := actionByToolName(call.Name)
	if !ok {
		return fmt.Errorf("model requested unknown tool %q", call.Name)
	}
	if action == channel.ActionInterview {
		return fmt.Errorf("interview is not a model-invocable action")
	}

	args := call.Input
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(action, args); err != nil {
		return err
	}

	payload, err := payloadFor(action, args)
	if err != nil {
		return err
	}
	result, err := a.ch.Send(ctx, a.ID, payload, action)
	if err != nil {
		return err
	}
	if err := resultError(action.String(), result); err != nil {
		// Precondition failures are normal agent behavior, not bugs.
		a.logger.Debug("action rejected", zap.String("action", action.String()), zap.Error(err))
		return nil
	}
	return nil
}

// resultError surfaces a platform failure reply as an error.
func resultError(action string, result any) error {
	res, ok := result.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: unexpected reply %T", action, result)
	}
	if ok, _ := res["success"].(bool); ok {
		return nil
	}
	reason, _ := res["error"].(string)
	return fmt.Errorf("%s failed: %s", action, reason)
}
