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
package recsys

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeEmbedder returns fixed vectors for known phrases and a neutral
// vector otherwise, so similarity rankings are fully deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := []float32{0.1, 0.1, 0.1}
		for phrase, v := range f.vectors {
			if strings.Contains(text, phrase) {
				vec = v
				break
			}
		}
		out[i] = vec
	}
	return out, nil
}

func usersN(n int) []User {
	users := make([]User, n)
	for i := range users {
		users[i] = User{UserID: int64(i), Bio: fmt.Sprintf("bio %d", i)}
	}
	return users
}

func postsN(n int) []Post {
	posts := make([]Post, n)
	for i := range posts {
		posts[i] = Post{PostID: int64(i + 1), UserID: int64(i % 3), Content: fmt.Sprintf("post %d", i+1), CreatedAt: "0"}
	}
	return posts
}

func TestParseType(t *testing.T) {
	for _, s := range []string{"random", "reddit", "twhin", "twitter"} {
		typ, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, Type(s), typ)
	}
	_, err := ParseType("pagerank")
	assert.Error(t, err)
}

func TestAllStrategiesDegenerateToFullSlate(t *testing.T) {
	snap := &Snapshot{Now: "10", Users: usersN(3), Posts: postsN(4)}
	embedder := &fakeEmbedder{}

	for _, typ := range []Type{TypeRandom, TypeReddit, TypeTwhin, TypeTwitter} {
		engine, err := New(Config{Type: typ, MaxRecPostLen: 10, Embedder: embedder, Seed: 1, Logger: zaptest.NewLogger(t)})
		require.NoError(t, err)

		slates, err := engine.Rank(context.Background(), snap)
		require.NoError(t, err, "strategy %s", typ)
		require.Len(t, slates, 3)
		for _, slate := range slates {
			assert.Len(t, slate, 4, "strategy %s should hand every post to every user", typ)
		}
	}
}

func TestRandomSlatesRespectBound(t *testing.T) {
	engine, err := New(Config{Type: TypeRandom, MaxRecPostLen: 5, Seed: 42})
	require.NoError(t, err)

	snap := &Snapshot{Now: "0", Users: usersN(4), Posts: postsN(20)}
	slates, err := engine.Rank(context.Background(), snap)
	require.NoError(t, err)

	for userID, slate := range slates {
		assert.Len(t, slate, 5)
		seen := map[int64]bool{}
		for _, id := range slate {
			assert.False(t, seen[id], "user %d has duplicate post ids", userID)
			seen[id] = true
		}
	}
}

func TestHotScoreFavorsNewerPost(t *testing.T) {
	// Two posts with identical engagement, created at ticks 0 and 100: the
	// newer one must score higher.
	older := HotScore(10, 0, 0)
	newer := HotScore(10, 0, 100)
	assert.Greater(t, newer, older)

	// The vote term dominates equal-age posts.
	loved := HotScore(100, 0, 0)
	hated := HotScore(0, 100, 0)
	assert.Greater(t, loved, hated)
}

func TestRedditSameSlateForEveryUserNewestFirst(t *testing.T) {
	engine, err := New(Config{Type: TypeReddit, MaxRecPostLen: 2})
	require.NoError(t, err)

	snap := &Snapshot{
		Now:   "200",
		Users: usersN(2),
		Posts: []Post{
			{PostID: 1, UserID: 0, Content: "old", CreatedAt: "0", NumLikes: 10},
			{PostID: 2, UserID: 1, Content: "new", CreatedAt: "100", NumLikes: 10},
			{PostID: 3, UserID: 1, Content: "meh", CreatedAt: "50", NumLikes: 0},
		},
	}
	slates, err := engine.Rank(context.Background(), snap)
	require.NoError(t, err)

	require.Len(t, slates, 2)
	for _, slate := range slates {
		require.Len(t, slate, 2)
		assert.EqualValues(t, 2, slate[0], "newer post ranks first")
		assert.EqualValues(t, 1, slate[1])
	}
	assert.Equal(t, slates[0], slates[1])
}

func TestTwhinPrefersSimilarContent(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"astronomy": {1, 0, 0},
		"telescope": {0.9, 0.1, 0},
		"gardening": {0, 1, 0},
	}}
	engine, err := New(Config{Type: TypeTwhin, MaxRecPostLen: 1, Embedder: embedder, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	snap := &Snapshot{
		Now: "10",
		Users: []User{
			{UserID: 0, Bio: "I love astronomy"},
			{UserID: 1, Bio: "I love gardening"},
		},
		Posts: []Post{
			{PostID: 1, UserID: 2, Content: "new telescope day", CreatedAt: "9"},
			{PostID: 2, UserID: 3, Content: "gardening tips", CreatedAt: "9"},
		},
	}
	// A neutral third post, plus user rows for the post authors.
	snap.Posts = append(snap.Posts, Post{PostID: 3, UserID: 4, Content: "lunch", CreatedAt: "9"})
	snap.Users = append(snap.Users, User{UserID: 2}, User{UserID: 3}, User{UserID: 4})

	slates, err := engine.Rank(context.Background(), snap)
	require.NoError(t, err)

	assert.EqualValues(t, []int64{1}, slates[0], "astronomer sees the telescope post")
	assert.EqualValues(t, []int64{2}, slates[1], "gardener sees the gardening post")
}

func TestTwhinEmbeddingFailureAborts(t *testing.T) {
	engine, err := New(Config{Type: TypeTwhin, MaxRecPostLen: 1, Embedder: &fakeEmbedder{fail: true}, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	snap := &Snapshot{Now: "0", Users: usersN(2), Posts: postsN(5)}
	_, err = engine.Rank(context.Background(), snap)
	assert.Error(t, err)
}

func TestTwhinProfileCacheTracksLatestPost(t *testing.T) {
	engine := newTwhinEngine(1, &fakeEmbedder{}, zaptest.NewLogger(t))

	snap := &Snapshot{
		Now:   "1",
		Users: []User{{UserID: 0, Bio: "base bio"}},
		Posts: []Post{{PostID: 1, UserID: 0, Content: "first words", CreatedAt: "0"}},
	}
	engine.refreshProfiles(snap)
	assert.Equal(t, "base bio\nRecent post: first words", engine.profiles[0])

	snap.Posts = append(snap.Posts, Post{PostID: 2, UserID: 0, Content: "newer words", CreatedAt: "1"})
	engine.refreshProfiles(snap)
	assert.Equal(t, "base bio\nRecent post: newer words", engine.profiles[0])

	// A user with no bio gets the placeholder profile.
	snap.Users = append(snap.Users, User{UserID: 9})
	engine.refreshProfiles(snap)
	assert.Equal(t, emptyProfile, engine.profiles[9])
}

func TestTwitterExcludesOwnPostsAndRespectsBound(t *testing.T) {
	engine, err := New(Config{Type: TypeTwitter, MaxRecPostLen: 3, Embedder: &fakeEmbedder{}, Seed: 7, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	posts := postsN(10)
	snap := &Snapshot{Now: "5", Users: usersN(3), Posts: posts}
	slates, err := engine.Rank(context.Background(), snap)
	require.NoError(t, err)

	postAuthor := map[int64]int64{}
	for _, post := range posts {
		postAuthor[post.PostID] = post.UserID
	}
	for userID, slate := range slates {
		assert.LessOrEqual(t, len(slate), 3)
		for _, id := range slate {
			assert.NotEqual(t, userID, postAuthor[id], "user %d was recommended their own post", userID)
		}
	}
}

func TestVirtualSeconds(t *testing.T) {
	sec, ok := virtualSeconds("42")
	require.True(t, ok)
	assert.EqualValues(t, 42, sec)

	sec, ok = virtualSeconds("2024-06-01 12:00:00.000000")
	require.True(t, ok)
	assert.Greater(t, sec, float64(1_700_000_000))

	_, ok = virtualSeconds("not a time")
	assert.False(t, ok)
}
