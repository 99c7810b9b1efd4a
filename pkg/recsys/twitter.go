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
	"math/rand"

	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/embeddings"
)

// swapRate is the share of each slate replaced with random unseen posts for
// diversity.
const swapRate = 0.1

// twitterEngine is the legacy trace-aware strategy: bio/content similarity
// adjusted by the user's like and dislike history, with a random swap for
// exploration.
type twitterEngine struct {
	maxLen   int
	embedder embeddings.Embedder
	rng      *rand.Rand
	logger   *zap.Logger
}

func (e *twitterEngine) Rank(ctx context.Context, snap *Snapshot) (map[int64][]int64, error) {
	if len(snap.Posts) <= e.maxLen {
		return fullSlate(snap), nil
	}

	texts := make([]string, 0, len(snap.Users)+len(snap.Posts))
	for _, u := range snap.Users {
		bio := u.Bio
		if bio == "" {
			bio = emptyProfile
		}
		texts = append(texts, bio)
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

	postVecByID := make(map[int64][]float32, len(snap.Posts))
	for i, post := range snap.Posts {
		postVecByID[post.PostID] = postVecs[i]
	}
	likesByUser := make(map[int64][]int64)
	for _, like := range snap.Likes {
		likesByUser[like.UserID] = append(likesByUser[like.UserID], like.PostID)
	}
	dislikesByUser := make(map[int64][]int64)
	for _, dislike := range snap.Dislikes {
		dislikesByUser[dislike.UserID] = append(dislikesByUser[dislike.UserID], dislike.PostID)
	}

	slates := make(map[int64][]int64, len(snap.Users))
	for ui, u := range snap.Users {
		// Candidates exclude the user's own posts.
		var candidates []int
		for pi, post := range snap.Posts {
			if post.UserID != u.UserID {
				candidates = append(candidates, pi)
			}
		}
		if len(candidates) == 0 {
			slates[u.UserID] = nil
			continue
		}

		base := make([]float64, len(candidates))
		minScore, maxScore := math.Inf(1), math.Inf(-1)
		for i, pi := range candidates {
			base[i] = embeddings.CosineSimilarity(userVecs[ui], postVecs[pi])
			if base[i] < minScore {
				minScore = base[i]
			}
			if base[i] > maxScore {
				maxScore = base[i]
			}
		}
		scoreRange := maxScore - minScore

		likeVecs := ratingVectors(likesByUser[u.UserID], postVecByID)
		dislikeVecs := ratingVectors(dislikesByUser[u.UserID], postVecByID)

		// Shift each base similarity by the normalized preference signal,
		// keeping the adjustment in scale with the candidate scores.
		adjusted := make([]float64, len(candidates))
		for i, pi := range candidates {
			likeSim := meanSimilarity(postVecs[pi], likeVecs)
			dislikeSim := meanSimilarity(postVecs[pi], dislikeVecs)
			adjusted[i] = base[i] + (likeSim-dislikeSim)*(scoreRange/2)
		}

		top := embeddings.TopK(adjusted, e.maxLen)
		slate := make([]int64, len(top))
		for i, idx := range top {
			slate[i] = snap.Posts[candidates[idx]].PostID
		}

		slates[u.UserID] = e.swapRandom(slate, snap, u.UserID, likesByUser[u.UserID], dislikesByUser[u.UserID])
	}

	e.logger.Debug("twitter refresh ranked",
		zap.Int("users", len(snap.Users)),
		zap.Int("posts", len(snap.Posts)))
	return slates, nil
}

// swapRandom replaces a tenth of the slate with random posts the user has
// not interacted with.
func (e *twitterEngine) swapRandom(slate []int64, snap *Snapshot, userID int64, liked, disliked []int64) []int64 {
	numToSwap := int(float64(len(slate)) * swapRate)
	if numToSwap == 0 {
		return slate
	}

	inSlate := make(map[int64]struct{}, len(slate))
	for _, id := range slate {
		inSlate[id] = struct{}{}
	}
	interacted := make(map[int64]struct{}, len(liked)+len(disliked))
	for _, id := range liked {
		interacted[id] = struct{}{}
	}
	for _, id := range disliked {
		interacted[id] = struct{}{}
	}

	var pool []int64
	for _, post := range snap.Posts {
		if post.UserID == userID {
			continue
		}
		if _, ok := inSlate[post.PostID]; ok {
			continue
		}
		if _, ok := interacted[post.PostID]; ok {
			continue
		}
		pool = append(pool, post.PostID)
	}
	if len(pool) < numToSwap {
		numToSwap = len(pool)
	}
	if numToSwap == 0 {
		return slate
	}

	poolPerm := e.rng.Perm(len(pool))
	slatePerm := e.rng.Perm(len(slate))
	for i := 0; i < numToSwap; i++ {
		slate[slatePerm[i]] = pool[poolPerm[i]]
	}
	return slate
}

// ratingVectors resolves rated post ids to their embedding vectors.
func ratingVectors(postIDs []int64, postVecByID map[int64][]float32) [][]float32 {
	var vecs [][]float32
	for _, id := range postIDs {
		if vec, ok := postVecByID[id]; ok {
			vecs = append(vecs, vec)
		}
	}
	return vecs
}
