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
package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/platform"
)

func TestToolsForExcludesInterview(t *testing.T) {
	// Even when a caller lists interview, it never becomes a tool.
	tools := ToolsFor([]channel.ActionType{
		channel.ActionCreatePost,
		channel.ActionInterview,
		channel.ActionLikePost,
	})

	require.Len(t, tools, 2)
	for _, tool := range tools {
		assert.NotEqual(t, "interview", tool.Name)
	}
}

func TestToolCatalogHasNoInterviewEntry(t *testing.T) {
	_, ok := toolCatalog[channel.ActionInterview]
	assert.False(t, ok)
}

func TestActionByToolName(t *testing.T) {
	action, ok := actionByToolName("like_post")
	require.True(t, ok)
	assert.Equal(t, channel.ActionLikePost, action)

	_, ok = actionByToolName("launch_rocket")
	assert.False(t, ok)
}

func TestValidateArgs(t *testing.T) {
	require.NoError(t, validateArgs(channel.ActionLikePost, map[string]any{"post_id": float64(3)}))
	require.NoError(t, validateArgs(channel.ActionDoNothing, map[string]any{}))

	// Missing required argument.
	assert.Error(t, validateArgs(channel.ActionLikePost, map[string]any{}))
	// Wrong type.
	assert.Error(t, validateArgs(channel.ActionCreatePost, map[string]any{"content": 7}))
}

func TestPayloadFor(t *testing.T) {
	payload, err := payloadFor(channel.ActionCreatePost, map[string]any{"content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, platform.ContentPayload{Content: "hi"}, payload)

	payload, err = payloadFor(channel.ActionLikePost, map[string]any{"post_id": float64(4)})
	require.NoError(t, err)
	assert.Equal(t, platform.PostIDPayload{PostID: 4}, payload)

	payload, err = payloadFor(channel.ActionFollow, map[string]any{"followee_id": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, platform.UserIDPayload{UserID: 2}, payload)

	payload, err = payloadFor(channel.ActionQuotePost, map[string]any{"post_id": float64(1), "quote_content": "so true"})
	require.NoError(t, err)
	assert.Equal(t, platform.QuotePayload{PostID: 1, Quote: "so true"}, payload)

	payload, err = payloadFor(channel.ActionSendToGroup, map[string]any{"group_id": float64(9), "message": "yo"})
	require.NoError(t, err)
	assert.Equal(t, platform.GroupMessagePayload{GroupID: 9, Text: "yo"}, payload)

	payload, err = payloadFor(channel.ActionRefresh, nil)
	require.NoError(t, err)
	assert.Nil(t, payload)

	_, err = payloadFor(channel.ActionRepost, map[string]any{})
	assert.Error(t, err)
}

func TestArgInt64Shapes(t *testing.T) {
	for _, args := range []map[string]any{
		{"id": float64(5)},
		{"id": int64(5)},
		{"id": int(5)},
		{"id": "5"},
	} {
		n, err := argInt64(args, "id")
		require.NoError(t, err)
		assert.EqualValues(t, 5, n)
	}

	_, err := argInt64(map[string]any{"id": "five"}, "id")
	assert.Error(t, err)
	_, err = argInt64(map[string]any{}, "id")
	assert.Error(t, err)
}
