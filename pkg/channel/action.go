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
package channel

// ActionType identifies a platform operation. The values are stable wire
// identifiers: trace rows carry them verbatim in the action column.
type ActionType string

const (
	ActionExit               ActionType = "exit"
	ActionSignUp             ActionType = "sign_up"
	ActionRefresh            ActionType = "refresh"
	ActionCreatePost         ActionType = "create_post"
	ActionRepost             ActionType = "repost"
	ActionQuotePost          ActionType = "quote_post"
	ActionLikePost           ActionType = "like_post"
	ActionUnlikePost         ActionType = "unlike_post"
	ActionDislikePost        ActionType = "dislike_post"
	ActionUndoDislikePost    ActionType = "undo_dislike_post"
	ActionReportPost         ActionType = "report_post"
	ActionFollow             ActionType = "follow"
	ActionUnfollow           ActionType = "unfollow"
	ActionMute               ActionType = "mute"
	ActionUnmute             ActionType = "unmute"
	ActionSearchUser         ActionType = "search_user"
	ActionSearchPosts        ActionType = "search_posts"
	ActionTrend              ActionType = "trend"
	ActionCreateComment      ActionType = "create_comment"
	ActionLikeComment        ActionType = "like_comment"
	ActionUnlikeComment      ActionType = "unlike_comment"
	ActionDislikeComment     ActionType = "dislike_comment"
	ActionUndoDislikeComment ActionType = "undo_dislike_comment"
	ActionDoNothing          ActionType = "do_nothing"
	ActionInterview          ActionType = "interview"
	ActionUpdateRecTable     ActionType = "update_rec_table"
	ActionCreateGroup        ActionType = "create_group"
	ActionJoinGroup          ActionType = "join_group"
	ActionLeaveGroup         ActionType = "leave_group"
	ActionSendToGroup        ActionType = "send_to_group"
	ActionListenFromGroup    ActionType = "listen_from_group"
	ActionSignUpProduct      ActionType = "sign_up_product"
	ActionPurchaseProduct    ActionType = "purchase_product"
)

// String returns the wire identifier.
func (a ActionType) String() string {
	return string(a)
}
