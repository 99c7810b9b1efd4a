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
package platform

// Request payloads. Each handler accepts exactly one of these; a payload of
// the wrong type fails the request without touching the store.

// SignUpPayload registers a new user. The user id equals the sender's agent
// id.
type SignUpPayload struct {
	UserName string `json:"user_name"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
}

// ContentPayload carries free text (create_post).
type ContentPayload struct {
	Content string `json:"content"`
}

// PostIDPayload targets a post (repost, like, dislike, undo variants).
type PostIDPayload struct {
	PostID int64 `json:"post_id"`
}

// QuotePayload quotes a post with commentary.
type QuotePayload struct {
	PostID  int64  `json:"post_id"`
	Quote   string `json:"quote_content"`
}

// ReportPayload reports a post.
type ReportPayload struct {
	PostID int64  `json:"post_id"`
	Reason string `json:"reason"`
}

// UserIDPayload targets another user (follow, unfollow, mute, unmute).
type UserIDPayload struct {
	UserID int64 `json:"user_id"`
}

// QueryPayload carries a search query.
type QueryPayload struct {
	Query string `json:"query"`
}

// CommentPayload creates a comment on a post.
type CommentPayload struct {
	PostID  int64  `json:"post_id"`
	Content string `json:"content"`
}

// CommentIDPayload targets a comment (like/dislike/undo variants).
type CommentIDPayload struct {
	CommentID int64 `json:"comment_id"`
}

// InterviewPayload records an interview prompt and its response. The driver
// fills Response before issuing the request; a bare prompt is also accepted.
type InterviewPayload struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// GroupNamePayload creates a group.
type GroupNamePayload struct {
	Name string `json:"name"`
}

// GroupIDPayload targets a group (join, leave).
type GroupIDPayload struct {
	GroupID int64 `json:"group_id"`
}

// GroupMessagePayload sends a message into a group.
type GroupMessagePayload struct {
	GroupID int64  `json:"group_id"`
	Text    string `json:"text"`
}

// ProductPayload registers a purchasable product.
type ProductPayload struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
}

// PurchasePayload buys a quantity of a product by name.
type PurchasePayload struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// CommentView is a hydrated comment row as seen by agents.
type CommentView struct {
	CommentID   int64  `json:"comment_id"`
	PostID      int64  `json:"post_id"`
	UserID      int64  `json:"user_id"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
	NumLikes    int64  `json:"num_likes,omitempty"`
	NumDislikes int64  `json:"num_dislikes,omitempty"`
	// Score replaces the raw counters when the platform shows Reddit-style
	// scores (likes − dislikes).
	Score *int64 `json:"score,omitempty"`
}

// PostView is a hydrated post row as seen by agents, comments attached.
type PostView struct {
	PostID         int64         `json:"post_id"`
	UserID         int64         `json:"user_id"`
	OriginalPostID *int64        `json:"original_post_id,omitempty"`
	Content        string        `json:"content"`
	QuoteContent   *string       `json:"quote_content,omitempty"`
	CreatedAt      string        `json:"created_at"`
	NumLikes       int64         `json:"num_likes,omitempty"`
	NumDislikes    int64         `json:"num_dislikes,omitempty"`
	NumShares      int64         `json:"num_shares,omitempty"`
	Score          *int64        `json:"score,omitempty"`
	Comments       []CommentView `json:"comments"`
}

// UserView is a user row as returned by search_user.
type UserView struct {
	UserID        int64  `json:"user_id"`
	AgentID       int64  `json:"agent_id"`
	UserName      string `json:"user_name"`
	Name          string `json:"name"`
	Bio           string `json:"bio"`
	CreatedAt     string `json:"created_at"`
	NumFollowings int64  `json:"num_followings"`
	NumFollowers  int64  `json:"num_followers"`
}

// GroupMessageView is one message returned by listen_from_group.
type GroupMessageView struct {
	MessageID int64  `json:"message_id"`
	GroupID   int64  `json:"group_id"`
	SenderID  int64  `json:"sender_id"`
	Content   string `json:"content"`
	SentAt    string `json:"sent_at"`
}

// Result is the reply envelope for every platform request. Payload fields
// live in the map alongside the success flag, matching the trace wire shape.
type Result = map[string]any

func success(kv map[string]any) Result {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["success"] = true
	return kv
}

func failure(reason string) Result {
	return map[string]any{"success": false, "error": reason}
}
