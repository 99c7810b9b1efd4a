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
	"math/rand"
)

// randomEngine samples an independent uniform slate per user.
type randomEngine struct {
	maxLen int
	rng    *rand.Rand
}

func (e *randomEngine) Rank(ctx context.Context, snap *Snapshot) (map[int64][]int64, error) {
	if len(snap.Posts) <= e.maxLen {
		return fullSlate(snap), nil
	}

	ids := make([]int64, len(snap.Posts))
	for i, post := range snap.Posts {
		ids[i] = post.PostID
	}

	slates := make(map[int64][]int64, len(snap.Users))
	for _, u := range snap.Users {
		perm := e.rng.Perm(len(ids))
		slate := make([]int64, e.maxLen)
		for i := 0; i < e.maxLen; i++ {
			slate[i] = ids[perm[i]]
		}
		slates[u.UserID] = slate
	}
	return slates, nil
}
