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
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/llm"
	"github.com/tunglinwood/oasis/pkg/platform"
)

func objectSchema(required []string, props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// toolCatalog maps every agent-invocable action to its tool definition.
// The interview tag is deliberately absent: it is an external control
// action and must never be advertised to the model.
var toolCatalog = map[channel.ActionType]llm.Tool{
	channel.ActionRefresh: {
		Name:        "refresh",
		Description: "Refreshes the feed to get the latest posts.",
		InputSchema: objectSchema(nil, nil),
	},
	channel.ActionCreatePost: {
		Name:        "create_post",
		Description: "Creates a new post with the given content.",
		InputSchema: objectSchema([]string{"content"}, map[string]any{
			"content": strProp("The text of the post to publish."),
		}),
	},
	channel.ActionRepost: {
		Name:        "repost",
		Description: "Reposts a post to your followers without commentary.",
		InputSchema: objectSchema([]string{"post_id"}, map[string]any{
			"post_id": intProp("The ID of the post to repost."),
		}),
	},
	channel.ActionQuotePost: {
		Name:        "quote_post",
		Description: "Reposts a post with your own commentary attached.",
		InputSchema: objectSchema([]string{"post_id", "quote_content"}, map[string]any{
			"post_id":       intProp("The ID of the post to quote."),
			"quote_content": strProp("Your commentary on the post."),
		}),
	},
	channel.ActionLikePost: {
		Name:        "like_post",
		Description: "Likes a specified post. Use it when you feel interested or you agree.",
		InputSchema: objectSchema([]string{"post_id"}, map[string]any{
			"post_id": intProp("The ID of the post to be liked."),
		}),
	},
	channel.ActionUnlikePost: {
		Name:        "unlike_post",
		Description: "Removes a like from a post you liked before.",
		InputSchema: objectSchema([]string{"post_id"}, map[string]any{
			"post_id": intProp("The ID of the post to be unliked."),
		}),
	},
	channel.ActionDislikePost: {
		Name:        "dislike_post",
		Description: "Dislikes a specified post. Use it when you disagree with a post or find it uninteresting.",
		InputSchema: objectSchema([]string{"post_id"}, map[string]any{
			"post_id": intProp("The ID of the post to be disliked."),
		}),
	},
	channel.ActionUndoDislikePost: {
		Name:        "undo_dislike_post",
		Description: "Removes a dislike from a post you disliked before.",
		InputSchema: objectSchema([]string{"post_id"}, map[string]any{
			"post_id": intProp("The ID of the post."),
		}),
	},
	channel.ActionReportPost: {
		Name:        "report_post",
		Description: "Reports a post for violating platform rules.",
		InputSchema: objectSchema([]string{"post_id", "report_reason"}, map[string]any{
			"post_id":       intProp("The ID of the post to report."),
			"report_reason": strProp("Why the post should be reviewed."),
		}),
	},
	channel.ActionFollow: {
		Name:        "follow",
		Description: "Follows a user so their posts appear in your feed.",
		InputSchema: objectSchema([]string{"followee_id"}, map[string]any{
			"followee_id": intProp("The ID of the user to follow."),
		}),
	},
	channel.ActionUnfollow: {
		Name:        "unfollow",
		Description: "Unfollows a user you currently follow.",
		InputSchema: objectSchema([]string{"followee_id"}, map[string]any{
			"followee_id": intProp("The ID of the user to unfollow."),
		}),
	},
	channel.ActionMute: {
		Name:        "mute",
		Description: "Mutes a user so their posts stop appearing in your feed.",
		InputSchema: objectSchema([]string{"mutee_id"}, map[string]any{
			"mutee_id": intProp("The ID of the user to mute."),
		}),
	},
	channel.ActionUnmute: {
		Name:        "unmute",
		Description: "Unmutes a user you muted before.",
		InputSchema: objectSchema([]string{"mutee_id"}, map[string]any{
			"mutee_id": intProp("The ID of the user to unmute."),
		}),
	},
	channel.ActionSearchPosts: {
		Name:        "search_posts",
		Description: "Searches for posts matching a query.",
		InputSchema: objectSchema([]string{"query"}, map[string]any{
			"query": strProp("The search query to find relevant posts."),
		}),
	},
	channel.ActionSearchUser: {
		Name:        "search_user",
		Description: "Searches for users matching a query.",
		InputSchema: objectSchema([]string{"query"}, map[string]any{
			"query": strProp("The search query to find relevant users."),
		}),
	},
	channel.ActionTrend: {
		Name:        "trend",
		Description: "Retrieves the currently trending posts.",
		InputSchema: objectSchema(nil, nil),
	},
	channel.ActionCreateComment: {
		Name:        "create_comment",
		Description: "Comments on a specified post.",
		InputSchema: objectSchema([]string{"post_id", "content"}, map[string]any{
			"post_id": intProp("The ID of the post to comment on."),
			"content": strProp("The text of the comment."),
		}),
	},
	channel.ActionLikeComment: {
		Name:        "like_comment",
		Description: "Likes a specified comment. Use it to show agreement or appreciation.",
		InputSchema: objectSchema([]string{"comment_id"}, map[string]any{
			"comment_id": intProp("The ID of the comment to be liked."),
		}),
	},
	channel.ActionUnlikeComment: {
		Name:        "unlike_comment",
		Description: "Removes a like from a comment you liked before.",
		InputSchema: objectSchema([]string{"comment_id"}, map[string]any{
			"comment_id": intProp("The ID of the comment."),
		}),
	},
	channel.ActionDislikeComment: {
		Name:        "dislike_comment",
		Description: "Dislikes a specified comment. Use it when you disagree or find it unhelpful.",
		InputSchema: objectSchema([]string{"comment_id"}, map[string]any{
			"comment_id": intProp("The ID of the comment to be disliked."),
		}),
	},
	channel.ActionUndoDislikeComment: {
		Name:        "undo_dislike_comment",
		Description: "Removes a dislike from a comment you disliked before.",
		InputSchema: objectSchema([]string{"comment_id"}, map[string]any{
			"comment_id": intProp("The ID of the comment."),
		}),
	},
	channel.ActionDoNothing: {
		Name:        "do_nothing",
		Description: "Performs no action. Use it when you prefer to observe.",
		InputSchema: objectSchema(nil, nil),
	},
	channel.ActionCreateGroup: {
		Name:        "create_group",
		Description: "Creates a chat group and joins it.",
		InputSchema: objectSchema([]string{"group_name"}, map[string]any{
			"group_name": strProp("The name of the new group."),
		}),
	},
	channel.ActionJoinGroup: {
		Name:        "join_group",
		Description: "Joins an existing chat group.",
		InputSchema: objectSchema([]string{"group_id"}, map[string]any{
			"group_id": intProp("The ID of the group to join."),
		}),
	},
	channel.ActionLeaveGroup: {
		Name:        "leave_group",
		Description: "Leaves a chat group you belong to.",
		InputSchema: objectSchema([]string{"group_id"}, map[string]any{
			"group_id": intProp("The ID of the group to leave."),
		}),
	},
	channel.ActionSendToGroup: {
		Name:        "send_to_group",
		Description: "Sends a message to a chat group you belong to.",
		InputSchema: objectSchema([]string{"group_id", "message"}, map[string]any{
			"group_id": intProp("The ID of the group."),
			"message":  strProp("The message to send."),
		}),
	},
	channel.ActionListenFromGroup: {
		Name:        "listen_from_group",
		Description: "Reads the messages in the chat groups you belong to.",
		InputSchema: objectSchema(nil, nil),
	},
	channel.ActionPurchaseProduct: {
		Name:        "purchase_product",
		Description: "Purchases a quantity of a product by name.",
		InputSchema: objectSchema([]string{"product_name", "quantity"}, map[string]any{
			"product_name": strProp("The name of the product to buy."),
			"quantity":     intProp("How many units to buy."),
		}),
	},
}

// ToolsFor returns the tool definitions for a permitted action set. The
// interview action is filtered out even when a caller lists it.
func ToolsFor(actions []channel.ActionType) []llm.Tool {
	tools := make([]llm.Tool, 0, len(actions))
	for _, action := range actions {
		if action == channel.ActionInterview {
			continue
		}
		if tool, ok := toolCatalog[action]; ok {
			tools = append(tools, tool)
		}
	}
	return tools
}

// actionByToolName resolves a model tool call back to its action tag.
func actionByToolName(name string) (channel.ActionType, bool) {
	for action, tool := range toolCatalog {
		if tool.Name == name {
			return action, true
		}
	}
	return "", false
}

// validateArgs checks tool-call arguments against the action's JSON schema
// before anything reaches the platform.
func validateArgs(action channel.ActionType, args map[string]any) error {
	tool, ok := toolCatalog[action]
	if !ok {
		return fmt.Errorf("no tool definition for action %s", action)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(tool.InputSchema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("invalid arguments for %s: %v", action, result.Errors())
	}
	return nil
}

// payloadFor converts validated tool-call arguments into the platform's
// typed payload for the action.
func payloadFor(action channel.ActionType, args map[string]any) (any, error) {
	switch action {
	case channel.ActionRefresh, channel.ActionTrend, channel.ActionDoNothing,
		channel.ActionListenFromGroup:
		return nil, nil
	case channel.ActionCreatePost:
		return platform.ContentPayload{Content: argString(args, "content")}, nil
	case channel.ActionRepost, channel.ActionLikePost, channel.ActionUnlikePost,
		channel.ActionDislikePost, channel.ActionUndoDislikePost:
		id, err := argInt64(args, "post_id")
		if err != nil {
			return nil, err
		}
		return platform.PostIDPayload{PostID: id}, nil
	case channel.ActionQuotePost:
		id, err := argInt64(args, "post_id")
		if err != nil {
			return nil, err
		}
		return platform.QuotePayload{PostID: id, Quote: argString(args, "quote_content")}, nil
	case channel.ActionReportPost:
		id, err := argInt64(args, "post_id")
		if err != nil {
			return nil, err
		}
		return platform.ReportPayload{PostID: id, Reason: argString(args, "report_reason")}, nil
	case channel.ActionFollow, channel.ActionUnfollow:
		id, err := argInt64(args, "followee_id")
		if err != nil {
			return nil, err
		}
		return platform.UserIDPayload{UserID: id}, nil
	case channel.ActionMute, channel.ActionUnmute:
		id, err := argInt64(args, "mutee_id")
		if err != nil {
			return nil, err
		}
		return platform.UserIDPayload{UserID: id}, nil
	case channel.ActionSearchPosts, channel.ActionSearchUser:
		return platform.QueryPayload{Query: argString(args, "query")}, nil
	case channel.ActionCreateComment:
		id, err := argInt64(args, "post_id")
		if err != nil {
			return nil, err
		}
		return platform.CommentPayload{PostID: id, Content: argString(args, "content")}, nil
	case channel.ActionLikeComment, channel.ActionUnlikeComment,
		channel.ActionDislikeComment, channel.ActionUndoDislikeComment:
		id, err := argInt64(args, "comment_id")
		if err != nil {
			return nil, err
		}
		return platform.CommentIDPayload{CommentID: id}, nil
	case channel.ActionCreateGroup:
		return platform.GroupNamePayload{Name: argString(args, "group_name")}, nil
	case channel.ActionJoinGroup, channel.ActionLeaveGroup:
		id, err := argInt64(args, "group_id")
		if err != nil {
			return nil, err
		}
		return platform.GroupIDPayload{GroupID: id}, nil
	case channel.ActionSendToGroup:
		id, err := argInt64(args, "group_id")
		if err != nil {
			return nil, err
		}
		return platform.GroupMessagePayload{GroupID: id, Text: argString(args, "message")}, nil
	case channel.ActionPurchaseProduct:
		qty, err := argInt64(args, "quantity")
		if err != nil {
			return nil, err
		}
		return platform.PurchasePayload{Name: argString(args, "product_name"), Quantity: qty}, nil
	case channel.ActionInterview:
		return platform.InterviewPayload{
			Prompt:   argString(args, "prompt"),
			Response: argString(args, "response"),
		}, nil
	case channel.ActionSignUp:
		return platform.SignUpPayload{
			UserName: argString(args, "user_name"),
			Name:     argString(args, "name"),
			Bio:      argString(args, "bio"),
		}, nil
	case channel.ActionSignUpProduct:
		id, err := argInt64(args, "product_id")
		if err != nil {
			return nil, err
		}
		return platform.ProductPayload{ProductID: id, Name: argString(args, "product_name")}, nil
	}
	return nil, fmt.Errorf("no payload mapping for action %s", action)
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// argInt64 accepts the numeric shapes JSON decoding produces.
func argInt64(args map[string]any, key string) (int64, error) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0, fmt.Errorf("argument %q is not an integer: %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q is missing or not an integer", key)
	}
}
