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
	"math"

	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/embeddings"
)

const (
	// twhinTimeHorizon bounds the recency term of the prior score.
	twhinTimeHorizon = 271.8
	// likeHistoryLen is how many recent likes feed the affinity term.
	likeHistoryLen = 5
	// emptyProfile stands in for users without a bio.
	emptyProfile = "This user does not have a profile."
)

// twhinEngine ranks posts per user by embedding similarity weighted with
// recency and audience priors, plus an affinity term over the user's recent
// likes. Profile and post caches persist across refreshes; they are touched
// only from the platform goroutine.
type twhinEngine struct {
	maxLen   int
	embedder embeddings.Embedder
	logger   *zap.Logger

	// Cached per-user profile text and the latest own post it reflects.
	profiles map[int64]string
	lastPost map[int64]string
}

func newTwhinEngine(maxLen int, embedder embeddings.Embedder, logger *zap.Logger) *twhinEngine {
	return &twhinEngine{
		maxLen:   maxLen,
		embedder: embedder,
		logger:   logger,
		profiles: make(map[int64]string),
		lastPost: make(map[int64]string),
	}
}

func (e *twhinEngine) Rank(ctx context.Context, snap *Snapshot) (map[int64][]int64, error) {
	if len(snap.Posts) <= e.maxLen {
		return fullSlate(snap), nil
	}

	e.refreshProfiles(snap)

	// One batch: all user profiles followed by all post contents.
	texts := make([]string, 0, len(snap.Users)+len(snap.Posts))
	for _, u := range snap.Users {
		texts = append(texts, e.profiles[u.UserID])
	}
	for _, post := range snap.Posts {
		texts = append(texts, post.Content)
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding batch failed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(texts))
	}
	userVecs := vectors[:len(snap.Users)]
	postVecs := vectors[len(snap.Users):]

	priors := e.priorScores(snap)

	// Vector lookup for the like-affinity term.
	postVecByID := make(map[int64][]float32, len(snap.Posts))
	for i, post := range snap.Posts {
		postVecByID[post.PostID] = postVecs[i]
	}
	likesByUser := make(map[int64][]int64)
	for _, like := range snap.Likes {
		likesByUser[like.UserID] = append(likesByUser[like.UserID], like.PostID)
	}

	slates := make(map[int64][]int64, len(snap.Users))
	for ui, u := range snap.Users {
		history := e.likeHistoryVectors(likesByUser[u.UserID], postVecByID, userVecs[ui])

		scores := make([]float64, len(snap.Posts))
		for pi := range snap.Posts {
			score := embeddings.CosineSimilarity(userVecs[ui], postVecs[pi]) * priors[pi]
			score += meanSimilarity(postVecs[pi], history)
			scores[pi] = score
		}

		top := embeddings.TopK(scores, e.maxLen)
		slate := make([]int64, len(top))
		for i, idx := range top {
			slate[i] = snap.Posts[idx].PostID
		}
		slates[u.UserID] = slate
	}

	e.logger.Debug("twhin refresh ranked",
		zap.Int("users", len(snap.Users)),
		zap.Int("posts", len(snap.Posts)))
	return slates, nil
}

// refreshProfiles rebuilds the cached profile text for users whose most
// recent post changed. The latest own post is folded into the profile so
// recent self-authorship influences similarity.
func (e *twhinEngine) refreshProfiles(snap *Snapshot) {
	latest := make(map[int64]string, len(snap.Users))
	for _, post := range snap.Posts {
		// Snapshot posts arrive in post_id order; the last write wins.
		if post.Content != "" {
			latest[post.UserID] = post.Content
		}
	}

	for _, u := range snap.Users {
		recent, hasPost := latest[u.UserID]
		if cached, ok := e.profiles[u.UserID]; ok && e.lastPost[u.UserID] == recent && cached != "" {
			continue
		}

		profile := u.Bio
		if profile == "" {
			profile = emptyProfile
		}
		if hasPost {
			profile += "\nRecent post: " + recent
		}
		e.profiles[u.UserID] = profile
		e.lastPost[u.UserID] = recent
	}
}

// priorScores computes time·audience priors for every post in snapshot
// order.
func (e *twhinEngine) priorScores(snap *Snapshot) []float64 {
	followers := make(map[int64]int64, len(snap.Users))
	for _, u := range snap.Users {
		followers[u.UserID] = u.NumFollowers
	}
	now, _ := virtualSeconds(snap.Now)

	priors := make([]float64, len(snap.Posts))
	for i, post := range snap.Posts {
		created, ok := virtualSeconds(post.CreatedAt)
		if !ok {
			created = now
		}
		remaining := twhinTimeHorizon - (now - created)
		if remaining < 1 {
			remaining = 1
		}
		timeScore := math.Log(remaining / 100)

		f := float64(followers[post.UserID])
		audienceScore := math.Max(1, math.Log(f+1)/math.Log(1000))

		priors[i] = timeScore * audienceScore
	}
	return priors
}

// likeHistoryVectors returns the vectors of the user's five most recent
// liked posts, padded by repeating the latest like; a user with no likes
// falls back to their own profile vector.
func (e *twhinEngine) likeHistoryVectors(likedPostIDs []int64, postVecByID map[int64][]float32, profileVec []float32) [][]float32 {
	var recent [][]float32
	for i := len(likedPostIDs) - 1; i >= 0 && len(recent) < likeHistoryLen; i-- {
		if vec, ok := postVecByID[likedPostIDs[i]]; ok {
			recent = append(recent, vec)
		}
	}
	if len(recent) == 0 {
		return [][]float32{profileVec}
	}
	for len(recent) < likeHistoryLen {
		recent = append(recent, recent[0])
	}
	return recent
}

// meanSimilarity averages cosine similarity between a candidate vector and
// a history set.
func meanSimilarity(candidate []float32, history [][]float32) float64 {
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, vec := range history {
		sum += embeddings.CosineSimilarity(candidate, vec)
	}
	return sum / float64(len(history))
}
