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
	"math"
	"sort"
)

// hotScoreEpochOffset anchors the time term of the hot score; see
// https://medium.com/hacking-and-gonzo/how-reddit-ranking-algorithms-work-ef111e33d0d9
const hotScoreEpochOffset = 1134028003

// redditEngine ranks every post by hot score and gives the same slate to
// every user.
type redditEngine struct {
	maxLen int
}

// HotScore computes the Reddit-style time-biased score for a post.
func HotScore(numLikes, numDislikes int64, epochSeconds float64) float64 {
	s := numLikes - numDislikes
	order := math.Log10(math.Max(math.Abs(float64(s)), 1))
	var sign float64
	switch {
	case s > 0:
		sign = 1
	case s < 0:
		sign = -1
	}
	seconds := epochSeconds - hotScoreEpochOffset
	return math.Round((sign*order+seconds/45000)*1e7) / 1e7
}

func (e *redditEngine) Rank(ctx context.Context, snap *Snapshot) (map[int64][]int64, error) {
	if len(snap.Posts) <= e.maxLen {
		return fullSlate(snap), nil
	}

	type scored struct {
		id    int64
		score float64
	}
	all := make([]scored, 0, len(snap.Posts))
	for _, post := range snap.Posts {
		epoch, ok := virtualSeconds(post.CreatedAt)
		if !ok {
			continue
		}
		all = append(all, scored{id: post.PostID, score: HotScore(post.NumLikes, post.NumDislikes, epoch)})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id > all[j].id
	})
	if len(all) > e.maxLen {
		all = all[:e.maxLen]
	}

	top := make([]int64, len(all))
	for i, s := range all {
		top[i] = s.id
	}

	slates := make(map[int64][]int64, len(snap.Users))
	for _, u := range snap.Users {
		slate := make([]int64, len(top))
		copy(slate, top)
		slates[u.UserID] = slate
	}
	return slates, nil
}
