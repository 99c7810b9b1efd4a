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
package platform_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/platform"
	"github.com/tunglinwood/oasis/pkg/recsys"
)

// harness wires a platform over an in-memory store with a tick clock and a
// random recommendation engine.
type harness struct {
	t     *testing.T
	ch    *channel.Channel
	store *platform.Store
	clk   *clock.TickClock
	plat  *platform.Platform
	stop  func()
}

func newHarness(t *testing.T, mutate func(*platform.Config)) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	store, err := platform.OpenStore(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := platform.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := recsys.New(recsys.Config{
		Type:          recsys.TypeRandom,
		MaxRecPostLen: cfg.MaxRecPostLen,
		Seed:          1,
		Logger:        logger,
	})
	require.NoError(t, err)

	ch := channel.New(logger)
	clk := clock.NewTickClock()
	plat := platform.New(store, ch, clk, engine, nil, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = plat.Run(ctx)
	}()

	h := &harness{t: t, ch: ch, store: store, clk: clk, plat: plat}
	h.stop = func() {
		_ = ch.Post(context.Background(), -1, nil, channel.ActionExit)
		<-done
		cancel()
	}
	t.Cleanup(h.stop)
	return h
}

// send issues one request and returns the reply envelope.
func (h *harness) send(agentID int64, payload any, action channel.ActionType) map[string]any {
	h.t.Helper()
	result, err := h.ch.Send(context.Background(), agentID, payload, action)
	require.NoError(h.t, err)
	res, ok := result.(map[string]any)
	require.True(h.t, ok, "reply should be a result map, got %T", result)
	return res
}

func (h *harness) mustSucceed(agentID int64, payload any, action channel.ActionType) map[string]any {
	h.t.Helper()
	res := h.send(agentID, payload, action)
	require.Equal(h.t, true, res["success"], "expected success, got %v", res["error"])
	return res
}

func (h *harness) mustFail(agentID int64, payload any, action channel.ActionType) string {
	h.t.Helper()
	res := h.send(agentID, payload, action)
	require.Equal(h.t, false, res["success"], "expected failure, got %v", res)
	reason, _ := res["error"].(string)
	return reason
}

func (h *harness) signUp(agentID int64, handle string) {
	h.t.Helper()
	res := h.mustSucceed(agentID, platform.SignUpPayload{UserName: handle, Name: handle, Bio: "bio of " + handle}, channel.ActionSignUp)
	assert.EqualValues(h.t, agentID, res["user_id"])
}

func (h *harness) count(query string, args ...any) int {
	h.t.Helper()
	var n int
	require.NoError(h.t, h.store.DB().QueryRow(query, args...).Scan(&n))
	return n
}

func TestSignUpAndTrace(t *testing.T) {
	h := newHarness(t, nil)

	h.signUp(1, "alice0101")
	h.signUp(2, "bubble")

	// A second sign-up for the same agent fails and leaves no extra trace.
	h.mustFail(1, platform.SignUpPayload{UserName: "again"}, channel.ActionSignUp)

	assert.Equal(t, 2, h.count("SELECT COUNT(*) FROM user"))
	assert.Equal(t, 2, h.count("SELECT COUNT(*) FROM trace WHERE action = 'sign_up'"))
}

func TestSelfRatingDisabled(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	res := h.mustSucceed(0, platform.ContentPayload{Content: "Hello"}, channel.ActionCreatePost)
	postID := res["post_id"].(int64)

	reason := h.mustFail(0, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
	assert.Contains(t, reason, "own post")

	h.mustSucceed(1, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
	assert.Equal(t, 1, h.count("SELECT num_likes FROM post WHERE post_id = ?", postID))
}

func TestSelfRatingEnabled(t *testing.T) {
	h := newHarness(t, func(cfg *platform.Config) { cfg.AllowSelfRating = true })
	h.signUp(0, "a")

	res := h.mustSucceed(0, platform.ContentPayload{Content: "self-love"}, channel.ActionCreatePost)
	postID := res["post_id"].(int64)

	h.mustSucceed(0, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
	assert.Equal(t, 1, h.count("SELECT num_likes FROM post WHERE post_id = ?", postID))
}

func TestRepostCanonicalization(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")
	h.signUp(2, "c")

	root := h.mustSucceed(0, platform.ContentPayload{Content: "original"}, channel.ActionCreatePost)["post_id"].(int64)

	repost := h.mustSucceed(1, platform.PostIDPayload{PostID: root}, channel.ActionRepost)["post_id"].(int64)
	var original int64
	require.NoError(t, h.store.DB().QueryRow("SELECT original_post_id FROM post WHERE post_id = ?", repost).Scan(&original))
	assert.Equal(t, root, original)

	// Repost of a repost flattens to the root.
	repost2 := h.mustSucceed(2, platform.PostIDPayload{PostID: repost}, channel.ActionRepost)["post_id"].(int64)
	require.NoError(t, h.store.DB().QueryRow("SELECT original_post_id FROM post WHERE post_id = ?", repost2).Scan(&original))
	assert.Equal(t, root, original)

	// Liking the repost lands on the root.
	h.mustSucceed(2, platform.PostIDPayload{PostID: repost}, channel.ActionLikePost)
	assert.Equal(t, 1, h.count("SELECT num_likes FROM post WHERE post_id = ?", root))
	assert.Equal(t, 0, h.count("SELECT num_likes FROM post WHERE post_id = ?", repost))

	// Shares accumulate on the root only.
	assert.Equal(t, 2, h.count("SELECT num_shares FROM post WHERE post_id = ?", root))

	// A second repost of the same root fails.
	h.mustFail(1, platform.PostIDPayload{PostID: root}, channel.ActionRepost)
}

func TestQuoteIsNotIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	root := h.mustSucceed(0, platform.ContentPayload{Content: "quotable"}, channel.ActionCreatePost)["post_id"].(int64)

	q1 := h.mustSucceed(1, platform.QuotePayload{PostID: root, Quote: "first take"}, channel.ActionQuotePost)["post_id"].(int64)
	q2 := h.mustSucceed(1, platform.QuotePayload{PostID: root, Quote: "second take"}, channel.ActionQuotePost)["post_id"].(int64)
	assert.NotEqual(t, q1, q2)

	// Quotes copy the root content and carry their own commentary.
	var content, quote string
	require.NoError(t, h.store.DB().QueryRow("SELECT content, quote_content FROM post WHERE post_id = ?", q1).Scan(&content, &quote))
	assert.Equal(t, "quotable", content)
	assert.Equal(t, "first take", quote)

	// Quotes do not count as shares.
	assert.Equal(t, 0, h.count("SELECT num_shares FROM post WHERE post_id = ?", root))
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	postID := h.mustSucceed(0, platform.ContentPayload{Content: "x"}, channel.ActionCreatePost)["post_id"].(int64)

	h.mustSucceed(1, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
	assert.Equal(t, 1, h.count(`SELECT COUNT(*) FROM "like" WHERE post_id = ?`, postID))

	// Double like fails; like+dislike is rejected.
	h.mustFail(1, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
	h.mustFail(1, platform.PostIDPayload{PostID: postID}, channel.ActionDislikePost)

	h.mustSucceed(1, platform.PostIDPayload{PostID: postID}, channel.ActionUnlikePost)
	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM "like" WHERE post_id = ?`, postID))
	assert.Equal(t, 0, h.count("SELECT num_likes FROM post WHERE post_id = ?", postID))

	// Unlike without a like fails.
	h.mustFail(1, platform.PostIDPayload{PostID: postID}, channel.ActionUnlikePost)

	// Dislike works once the like is gone.
	h.mustSucceed(1, platform.PostIDPayload{PostID: postID}, channel.ActionDislikePost)
	assert.Equal(t, 1, h.count("SELECT num_dislikes FROM post WHERE post_id = ?", postID))
	h.mustSucceed(1, platform.PostIDPayload{PostID: postID}, channel.ActionUndoDislikePost)
	assert.Equal(t, 0, h.count("SELECT num_dislikes FROM post WHERE post_id = ?", postID))
}

func TestFollowCounters(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	h.mustSucceed(0, platform.UserIDPayload{UserID: 1}, channel.ActionFollow)
	h.mustFail(0, platform.UserIDPayload{UserID: 1}, channel.ActionFollow)
	h.mustFail(0, platform.UserIDPayload{UserID: 0}, channel.ActionFollow)

	assert.Equal(t, 1, h.count("SELECT num_followings FROM user WHERE user_id = 0"))
	assert.Equal(t, 1, h.count("SELECT num_followers FROM user WHERE user_id = 1"))

	h.mustSucceed(0, platform.UserIDPayload{UserID: 1}, channel.ActionUnfollow)
	assert.Equal(t, 0, h.count("SELECT num_followings FROM user WHERE user_id = 0"))
	assert.Equal(t, 0, h.count("SELECT num_followers FROM user WHERE user_id = 1"))
	assert.Equal(t, 0, h.count("SELECT COUNT(*) FROM follow"))
}

func TestMuteUnmute(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	h.mustSucceed(0, platform.UserIDPayload{UserID: 1}, channel.ActionMute)
	h.mustFail(0, platform.UserIDPayload{UserID: 1}, channel.ActionMute)
	h.mustSucceed(0, platform.UserIDPayload{UserID: 1}, channel.ActionUnmute)
	h.mustFail(0, platform.UserIDPayload{UserID: 1}, channel.ActionUnmute)
}

func TestSearch(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "astronomer")
	h.signUp(1, "botanist")
	h.mustSucceed(0, platform.ContentPayload{Content: "telescopes are underrated"}, channel.ActionCreatePost)

	res := h.mustSucceed(1, platform.QueryPayload{Query: "telescopes"}, channel.ActionSearchPosts)
	posts := res["posts"].([]platform.PostView)
	require.Len(t, posts, 1)
	assert.Equal(t, "telescopes are underrated", posts[0].Content)

	// Stringified id match.
	res = h.mustSucceed(1, platform.QueryPayload{Query: "1"}, channel.ActionSearchPosts)
	assert.NotEmpty(t, res["posts"])

	h.mustFail(1, platform.QueryPayload{Query: "nonexistent topic"}, channel.ActionSearchPosts)

	res = h.mustSucceed(0, platform.QueryPayload{Query: "botan"}, channel.ActionSearchUser)
	users := res["users"].([]platform.UserView)
	require.Len(t, users, 1)
	assert.Equal(t, "botanist", users[0].UserName)
}

func TestTrendOrdersByLikes(t *testing.T) {
	h := newHarness(t, func(cfg *platform.Config) { cfg.TrendTopK = 2 })
	h.signUp(0, "a")
	h.signUp(1, "b")
	h.signUp(2, "c")

	cold := h.mustSucceed(0, platform.ContentPayload{Content: "cold"}, channel.ActionCreatePost)["post_id"].(int64)
	hot := h.mustSucceed(1, platform.ContentPayload{Content: "hot"}, channel.ActionCreatePost)["post_id"].(int64)

	h.mustSucceed(0, platform.PostIDPayload{PostID: hot}, channel.ActionLikePost)
	h.mustSucceed(2, platform.PostIDPayload{PostID: hot}, channel.ActionLikePost)
	h.mustSucceed(2, platform.PostIDPayload{PostID: cold}, channel.ActionLikePost)

	res := h.mustSucceed(2, nil, channel.ActionTrend)
	posts := res["posts"].([]platform.PostView)
	require.Len(t, posts, 2)
	assert.Equal(t, hot, posts[0].PostID)
	assert.Equal(t, cold, posts[1].PostID)
}

func TestCommentsAndCommentRatings(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	root := h.mustSucceed(0, platform.ContentPayload{Content: "post"}, channel.ActionCreatePost)["post_id"].(int64)
	repost := h.mustSucceed(1, platform.PostIDPayload{PostID: root}, channel.ActionRepost)["post_id"].(int64)

	// Commenting on the repost canonicalizes to the root.
	commentID := h.mustSucceed(1, platform.CommentPayload{PostID: repost, Content: "nice"}, channel.ActionCreateComment)["comment_id"].(int64)
	assert.Equal(t, 1, h.count("SELECT COUNT(*) FROM comment WHERE post_id = ?", root))

	// Self-rating applies to comments as well.
	h.mustFail(1, platform.CommentIDPayload{CommentID: commentID}, channel.ActionLikeComment)

	h.mustSucceed(0, platform.CommentIDPayload{CommentID: commentID}, channel.ActionLikeComment)
	assert.Equal(t, 1, h.count("SELECT num_likes FROM comment WHERE comment_id = ?", commentID))

	h.mustSucceed(0, platform.CommentIDPayload{CommentID: commentID}, channel.ActionUnlikeComment)
	assert.Equal(t, 0, h.count("SELECT num_likes FROM comment WHERE comment_id = ?", commentID))

	h.mustSucceed(0, platform.CommentIDPayload{CommentID: commentID}, channel.ActionDislikeComment)
	h.mustFail(0, platform.CommentIDPayload{CommentID: commentID}, channel.ActionLikeComment)
	h.mustSucceed(0, platform.CommentIDPayload{CommentID: commentID}, channel.ActionUndoDislikeComment)
}

func TestReportPost(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	root := h.mustSucceed(0, platform.ContentPayload{Content: "sketchy"}, channel.ActionCreatePost)["post_id"].(int64)

	h.mustSucceed(1, platform.ReportPayload{PostID: root, Reason: "spam"}, channel.ActionReportPost)
	assert.Equal(t, 1, h.count("SELECT num_reports FROM post WHERE post_id = ?", root))

	h.mustFail(1, platform.ReportPayload{PostID: root, Reason: "spam again"}, channel.ActionReportPost)
	assert.Equal(t, 1, h.count("SELECT num_reports FROM post WHERE post_id = ?", root))
}

func TestGroupMessaging(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")
	h.signUp(2, "c")

	groupID := h.mustSucceed(0, platform.GroupNamePayload{Name: "club"}, channel.ActionCreateGroup)["group_id"].(int64)
	h.mustSucceed(1, platform.GroupIDPayload{GroupID: groupID}, channel.ActionJoinGroup)
	h.mustFail(1, platform.GroupIDPayload{GroupID: groupID}, channel.ActionJoinGroup)

	// The creator is a member; outsiders are rejected.
	h.mustSucceed(0, platform.GroupMessagePayload{GroupID: groupID, Text: "hi"}, channel.ActionSendToGroup)
	h.mustFail(2, platform.GroupMessagePayload{GroupID: groupID, Text: "hi"}, channel.ActionSendToGroup)

	res := h.mustSucceed(1, nil, channel.ActionListenFromGroup)
	messages := res["messages"].([]platform.GroupMessageView)
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Content)
	assert.EqualValues(t, 0, messages[0].SenderID)

	// Non-members hear nothing.
	res = h.mustSucceed(2, nil, channel.ActionListenFromGroup)
	assert.Empty(t, res["messages"])

	h.mustSucceed(1, platform.GroupIDPayload{GroupID: groupID}, channel.ActionLeaveGroup)
	h.mustFail(1, platform.GroupMessagePayload{GroupID: groupID, Text: "late"}, channel.ActionSendToGroup)
}

func TestProducts(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")

	h.mustSucceed(0, platform.ProductPayload{ProductID: 1, Name: "widget"}, channel.ActionSignUpProduct)
	h.mustFail(0, platform.ProductPayload{ProductID: 2, Name: "widget"}, channel.ActionSignUpProduct)

	h.mustSucceed(0, platform.PurchasePayload{Name: "widget", Quantity: 3}, channel.ActionPurchaseProduct)
	h.mustSucceed(0, platform.PurchasePayload{Name: "widget", Quantity: 2}, channel.ActionPurchaseProduct)
	assert.Equal(t, 5, h.count("SELECT sales FROM product WHERE product_name = 'widget'"))

	h.mustFail(0, platform.PurchasePayload{Name: "gadget", Quantity: 1}, channel.ActionPurchaseProduct)
}

func TestRefreshBoundaries(t *testing.T) {
	h := newHarness(t, func(cfg *platform.Config) { cfg.RefreshRecPostCount = 2 })
	h.signUp(0, "a")
	h.signUp(1, "b")

	// Empty rec pool and no followee posts: refresh fails.
	reason := h.mustFail(0, nil, channel.ActionRefresh)
	assert.Contains(t, reason, "No posts found")

	for _, content := range []string{"one", "two", "three", "four"} {
		h.mustSucceed(1, platform.ContentPayload{Content: content}, channel.ActionCreatePost)
	}
	h.mustSucceed(-1, nil, channel.ActionUpdateRecTable)

	res := h.mustSucceed(0, nil, channel.ActionRefresh)
	posts := res["posts"].([]platform.PostView)
	assert.NotEmpty(t, posts)
	assert.LessOrEqual(t, len(posts), 2)

	// Posts arrive hydrated and deduplicated.
	seen := map[int64]bool{}
	for _, p := range posts {
		assert.False(t, seen[p.PostID])
		seen[p.PostID] = true
	}

	// Refresh is traced with its delivered posts.
	assert.Equal(t, 1, h.count("SELECT COUNT(*) FROM trace WHERE action = 'refresh' AND user_id = 0"))
}

func TestRefreshIncludesFolloweePosts(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")
	h.signUp(1, "b")

	h.mustSucceed(0, platform.UserIDPayload{UserID: 1}, channel.ActionFollow)
	h.mustSucceed(1, platform.ContentPayload{Content: "from your followee"}, channel.ActionCreatePost)

	// No rec refresh ran, the followee union alone feeds the result.
	res := h.mustSucceed(0, nil, channel.ActionRefresh)
	posts := res["posts"].([]platform.PostView)
	require.Len(t, posts, 1)
	assert.Equal(t, "from your followee", posts[0].Content)
}

func TestInterviewTrace(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")

	h.mustSucceed(0, platform.InterviewPayload{
		Prompt:   "How do you feel?",
		Response: "Fine.",
	}, channel.ActionInterview)

	var info string
	require.NoError(t, h.store.DB().QueryRow("SELECT info FROM trace WHERE action = 'interview' AND user_id = 0").Scan(&info))
	assert.Contains(t, info, "How do you feel?")
	assert.Contains(t, info, "Fine.")
}

func TestDoNothingEmitsTrace(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")

	h.mustSucceed(0, nil, channel.ActionDoNothing)
	assert.Equal(t, 1, h.count("SELECT COUNT(*) FROM trace WHERE action = 'do_nothing'"))
}

func TestUnknownActionFails(t *testing.T) {
	h := newHarness(t, nil)
	reason := h.mustFail(0, nil, channel.ActionType("sabotage"))
	assert.Contains(t, reason, "unknown action")
}

func TestFailuresEmitNoTrace(t *testing.T) {
	h := newHarness(t, nil)
	h.signUp(0, "a")

	before := h.count("SELECT COUNT(*) FROM trace")
	h.mustFail(0, platform.PostIDPayload{PostID: 404}, channel.ActionLikePost)
	h.mustFail(0, platform.UserIDPayload{UserID: 404}, channel.ActionFollow)
	assert.Equal(t, before, h.count("SELECT COUNT(*) FROM trace"))
}

func TestShowScore(t *testing.T) {
	h := newHarness(t, func(cfg *platform.Config) { cfg.ShowScore = true })
	h.signUp(0, "a")
	h.signUp(1, "b")
	h.signUp(2, "c")

	postID := h.mustSucceed(0, platform.ContentPayload{Content: "scored"}, channel.ActionCreatePost)["post_id"].(int64)
	h.mustSucceed(1, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
	h.mustSucceed(2, platform.PostIDPayload{PostID: postID}, channel.ActionDislikePost)

	res := h.mustSucceed(1, platform.QueryPayload{Query: "scored"}, channel.ActionSearchPosts)
	posts := res["posts"].([]platform.PostView)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].Score)
	assert.EqualValues(t, 0, *posts[0].Score)
	assert.Zero(t, posts[0].NumLikes)
	assert.Zero(t, posts[0].NumDislikes)
}

// TestConcurrentCallsSerialize checks that any interleaving of concurrent
// requests leaves counters equal to some sequential execution.
func TestConcurrentCallsSerialize(t *testing.T) {
	h := newHarness(t, nil)

	const agents = 20
	for i := int64(0); i < agents; i++ {
		h.signUp(i, "user")
	}
	postID := h.mustSucceed(0, platform.ContentPayload{Content: "pile-on"}, channel.ActionCreatePost)["post_id"].(int64)

	var wg sync.WaitGroup
	for i := int64(1); i < agents; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			result, err := h.ch.Send(context.Background(), id, platform.PostIDPayload{PostID: postID}, channel.ActionLikePost)
			assert.NoError(t, err)
			res := result.(map[string]any)
			assert.Equal(t, true, res["success"])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, agents-1, h.count("SELECT num_likes FROM post WHERE post_id = ?", postID))
	assert.Equal(t, agents-1, h.count(`SELECT COUNT(*) FROM "like" WHERE post_id = ?`, postID))
	assert.Equal(t, agents-1, h.count("SELECT COUNT(*) FROM trace WHERE action = 'like_post'"))
}

// TestCounterInvariants replays a busy session and checks every §3
// counter-cardinality invariant at the end.
func TestCounterInvariants(t *testing.T) {
	h := newHarness(t, nil)
	for i := int64(0); i < 4; i++ {
		h.signUp(i, "user")
	}

	p0 := h.mustSucceed(0, platform.ContentPayload{Content: "p0"}, channel.ActionCreatePost)["post_id"].(int64)
	h.mustSucceed(1, platform.ContentPayload{Content: "p1"}, channel.ActionCreatePost)
	h.mustSucceed(1, platform.PostIDPayload{PostID: p0}, channel.ActionRepost)
	h.mustSucceed(2, platform.PostIDPayload{PostID: p0}, channel.ActionLikePost)
	h.mustSucceed(3, platform.PostIDPayload{PostID: p0}, channel.ActionDislikePost)
	h.mustSucceed(2, platform.ReportPayload{PostID: p0, Reason: "test"}, channel.ActionReportPost)
	h.mustSucceed(0, platform.UserIDPayload{UserID: 1}, channel.ActionFollow)
	h.mustSucceed(2, platform.UserIDPayload{UserID: 1}, channel.ActionFollow)

	db := h.store.DB()

	rows, err := db.Query("SELECT user_id, num_followings, num_followers FROM user")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id, followings, followers int
		require.NoError(t, rows.Scan(&id, &followings, &followers))
		assert.Equal(t, h.count("SELECT COUNT(*) FROM follow WHERE follower_id = ?", id), followings)
		assert.Equal(t, h.count("SELECT COUNT(*) FROM follow WHERE followee_id = ?", id), followers)
	}

	postRows, err := db.Query("SELECT post_id, num_likes, num_dislikes, num_shares, num_reports FROM post")
	require.NoError(t, err)
	defer postRows.Close()
	for postRows.Next() {
		var id, likes, dislikes, shares, reports int
		require.NoError(t, postRows.Scan(&id, &likes, &dislikes, &shares, &reports))
		assert.Equal(t, h.count(`SELECT COUNT(*) FROM "like" WHERE post_id = ?`, id), likes)
		assert.Equal(t, h.count("SELECT COUNT(*) FROM dislike WHERE post_id = ?", id), dislikes)
		assert.Equal(t, h.count("SELECT COUNT(*) FROM post WHERE original_post_id = ? AND content IS NULL AND quote_content IS NULL", id), shares)
		assert.Equal(t, h.count("SELECT COUNT(*) FROM report WHERE post_id = ?", id), reports)
	}
}
