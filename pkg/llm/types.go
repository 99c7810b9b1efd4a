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

// Package llm defines the provider-neutral LLM boundary. The model is an
// external black box: providers translate between these types and each
// vendor's wire format.
package llm

import "context"

// Message is one turn of a conversation.
type Message struct {
	// Role is "system", "user", "assistant", or "tool".
	Role    string
	Content string
	// ToolCalls carries the assistant's tool invocations.
	ToolCalls []ToolCall
	// ToolUseID correlates a tool-role message with the call it answers.
	ToolUseID string
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// Tool describes one callable tool advertised to the model. InputSchema is
// a JSON Schema object.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the provider-neutral reply.
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
	Usage      Usage
}

// Provider is a chat-completion backend with tool calling.
type Provider interface {
	// Name identifies the provider ("anthropic", "ollama").
	Name() string
	// Chat sends a conversation and the available tools.
	Chat(ctx context.Context, messages []Message, tools []Tool) (*Response, error)
}

// Complete runs a one-shot completion with no tools, returning the text.
func Complete(ctx context.Context, p Provider, system, prompt string) (string, error) {
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}
	resp, err := p.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
