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

// Package recsys recomputes per-user candidate feeds from engagement
// signals and embeddings. Engines run as a platform subroutine: they read a
// snapshot taken inside the serialized step and return fresh slates, so
// their caches obey the platform's single-writer rule.
package recsys

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/embeddings"
)

// Type selects a recommendation strategy.
type Type string

const (
	TypeRandom  Type = "random"
	TypeReddit  Type = "reddit"
	TypeTwhin   Type = "twhin"
	TypeTwitter Type = "twitter"
)

// ParseType validates a recsys_type configuration value.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeRandom, TypeReddit, TypeTwhin, TypeTwitter:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown recsys type: %q", s)
}

// User is one user row in the engine's snapshot.
type User struct {
	UserID       int64
	Bio          string
	NumFollowers int64
}

// Post is one post row in the engine's snapshot.
type Post struct {
	PostID      int64
	UserID      int64
	Content     string
	CreatedAt   string
	NumLikes    int64
	NumDislikes int64
}

// Rating is one like or dislike row in the engine's snapshot.
type Rating struct {
	UserID    int64
	PostID    int64
	CreatedAt string
}

// Snapshot is the engine's read-only view of the world at refresh time.
type Snapshot struct {
	Now      string
	Users    []User
	Posts    []Post
	Likes    []Rating
	Dislikes []Rating
}

// Engine computes one slate of candidate post ids per user.
type Engine interface {
	Rank(ctx context.Context, snap *Snapshot) (map[int64][]int64, error)
}

// Config parameterizes engine construction.
type Config struct {
	Type          Type
	MaxRecPostLen int
	// Embedder backs the twhin and twitter strategies. Ignored by the
	// others.
	Embedder embeddings.Embedder
	// Seed fixes the RNG for reproducible runs; 0 seeds from the clock.
	Seed   int64
	Logger *zap.Logger
}

// New constructs the engine for cfg.Type.
func New(cfg Config) (Engine, error) {
	if cfg.MaxRecPostLen <= 0 {
		return nil, fmt.Errorf("max_rec_post_len must be positive")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	switch cfg.Type {
	case TypeRandom:
		return &randomEngine{maxLen: cfg.MaxRecPostLen, rng: rng}, nil
	case TypeReddit:
		return &redditEngine{maxLen: cfg.MaxRecPostLen}, nil
	case TypeTwhin:
		if cfg.Embedder == nil {
			return nil, fmt.Errorf("twhin engine requires an embedder")
		}
		return newTwhinEngine(cfg.MaxRecPostLen, cfg.Embedder, cfg.Logger), nil
	case TypeTwitter:
		if cfg.Embedder == nil {
			return nil, fmt.Errorf("twitter engine requires an embedder")
		}
		return &twitterEngine{maxLen: cfg.MaxRecPostLen, embedder: cfg.Embedder, rng: rng, logger: cfg.Logger}, nil
	}
	return nil, fmt.Errorf("unknown recsys type: %q", cfg.Type)
}

// fullSlate gives every user every post; all strategies degenerate to this
// when the corpus fits inside one slate.
func fullSlate(snap *Snapshot) map[int64][]int64 {
	ids := make([]int64, len(snap.Posts))
	for i, post := range snap.Posts {
		ids[i] = post.PostID
	}
	slates := make(map[int64][]int64, len(snap.Users))
	for _, u := range snap.Users {
		slate := make([]int64, len(ids))
		copy(slate, ids)
		slates[u.UserID] = slate
	}
	return slates
}

// virtualSeconds converts a stored timestamp to seconds on the virtual
// timeline. Integer tick stamps count as raw seconds; datetime stamps use
// their unix time.
func virtualSeconds(stamp string) (float64, bool) {
	if tick, err := strconv.ParseFloat(stamp, 64); err == nil {
		return tick, true
	}
	t, err := time.Parse(clock.TimeFormat, stamp)
	if err != nil {
		return 0, false
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9, true
}
