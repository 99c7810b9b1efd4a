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

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/recsys"
)

// ticksPerDay converts trend windows to tick-mode time: one tick is roughly
// three simulated minutes.
const ticksPerDay = 480

func (p *Platform) handleRefresh(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	recIDs, err := collectIDs(tx.Query("SELECT post_id FROM rec WHERE user_id = ?", senderID))
	if err != nil {
		return nil, nil, err
	}

	// Uniform random draw from the user's rec slate.
	p.rng.Shuffle(len(recIDs), func(i, j int) { recIDs[i], recIDs[j] = recIDs[j], recIDs[i] })
	if len(recIDs) > p.cfg.RefreshRecPostCount {
		recIDs = recIDs[:p.cfg.RefreshRecPostCount]
	}

	// Non-Reddit platforms fold in the top-liked posts by followees.
	if p.cfg.RecsysType != recsys.TypeReddit && p.cfg.FollowingPostCount > 0 {
		followeeIDs, err := collectIDs(tx.Query(`
			SELECT post_id FROM post
			WHERE user_id IN (SELECT followee_id FROM follow WHERE follower_id = ?)
			ORDER BY num_likes DESC, post_id DESC
			LIMIT ?`, senderID, p.cfg.FollowingPostCount))
		if err != nil {
			return nil, nil, err
		}
		recIDs = append(recIDs, followeeIDs...)
	}

	// De-duplicate while keeping draw order.
	seen := make(map[int64]struct{}, len(recIDs))
	unique := recIDs[:0]
	for _, id := range recIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if len(unique) == 0 {
		return failure("No posts found."), nil, nil
	}

	posts, err := p.loadPostViews(tx, unique)
	if err != nil {
		return nil, nil, err
	}
	if len(posts) == 0 {
		return failure("No posts found."), nil, nil
	}

	// Refresh is traced with the delivered posts: downstream analysis
	// reconstructs who saw what from these rows.
	trace := map[string]any{"posts": posts}
	return success(map[string]any{"posts": posts}), trace, nil
}

func (p *Platform) handleTrend(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	rows, err := tx.Query("SELECT post_id, created_at FROM post")
	if err != nil {
		return nil, nil, err
	}
	type candidate struct {
		id      int64
		created string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var created sql.NullString
		if err := rows.Scan(&c.id, &created); err != nil {
			rows.Close()
			return nil, nil, err
		}
		c.created = created.String
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var ids []int64
	for _, c := range candidates {
		if p.withinTrendWindow(c.created) {
			ids = append(ids, c.id)
		}
	}
	if len(ids) == 0 {
		return failure("No trending posts found."), nil, nil
	}

	ordered, err := collectIDs(tx.Query(fmt.Sprintf(`
		SELECT post_id FROM post
		WHERE post_id IN (%s)
		ORDER BY num_likes DESC, post_id DESC
		LIMIT ?`, placeholders(len(ids))),
		append(toAnySlice(ids), p.cfg.TrendTopK)...,
	))
	if err != nil {
		return nil, nil, err
	}

	posts, err := p.loadPostViews(tx, ordered)
	if err != nil {
		return nil, nil, err
	}
	return success(map[string]any{"posts": posts}), nil, nil
}

// withinTrendWindow reports whether a created_at stamp falls inside the
// trailing trend window of virtual time. Tick stamps compare in ticks,
// datetime stamps in days.
func (p *Platform) withinTrendWindow(created string) bool {
	nowStr := p.clk.Now()

	if nowTick, err := strconv.ParseInt(nowStr, 10, 64); err == nil {
		createdTick, err := strconv.ParseInt(created, 10, 64)
		if err != nil {
			return false
		}
		return nowTick-createdTick <= int64(p.cfg.TrendNumDays)*ticksPerDay
	}

	nowTime, err := time.Parse(clock.TimeFormat, nowStr)
	if err != nil {
		return false
	}
	createdTime, err := time.Parse(clock.TimeFormat, created)
	if err != nil {
		return false
	}
	return nowTime.Sub(createdTime) <= time.Duration(p.cfg.TrendNumDays)*24*time.Hour
}

// handleUpdateRecTable snapshots the store, asks the engine for fresh
// slates, and rewrites the rec table. On any engine or storage error the
// previous rec table stays intact.
func (p *Platform) handleUpdateRecTable(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	snap, err := p.snapshot(tx)
	if err != nil {
		return nil, nil, err
	}

	slates, err := p.engine.Rank(ctx, snap)
	if err != nil {
		return nil, nil, fmt.Errorf("recommender refresh aborted: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM rec"); err != nil {
		return nil, nil, err
	}
	stmt, err := tx.Prepare("INSERT INTO rec (user_id, post_id) VALUES (?, ?)")
	if err != nil {
		return nil, nil, err
	}
	defer stmt.Close()
	for userID, postIDs := range slates {
		for _, postID := range postIDs {
			if _, err := stmt.Exec(userID, postID); err != nil {
				return nil, nil, err
			}
		}
	}

	return success(map[string]any{"users": len(slates)}), nil, nil
}

// snapshot reads the engine's view of the world inside the current step.
func (p *Platform) snapshot(tx *sql.Tx) (*recsys.Snapshot, error) {
	snap := &recsys.Snapshot{Now: p.clk.Now()}

	rows, err := tx.Query("SELECT user_id, COALESCE(bio, ''), num_followers FROM user ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var u recsys.User
		if err := rows.Scan(&u.UserID, &u.Bio, &u.NumFollowers); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Users = append(snap.Users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`
		SELECT post_id, user_id, COALESCE(content, ''), COALESCE(created_at, ''), num_likes, num_dislikes
		FROM post ORDER BY post_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var post recsys.Post
		if err := rows.Scan(&post.PostID, &post.UserID, &post.Content, &post.CreatedAt, &post.NumLikes, &post.NumDislikes); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Posts = append(snap.Posts, post)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT user_id, post_id, created_at FROM "like" ORDER BY like_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var l recsys.Rating
		if err := rows.Scan(&l.UserID, &l.PostID, &l.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Likes = append(snap.Likes, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.Query(`SELECT user_id, post_id, created_at FROM dislike ORDER BY dislike_id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var d recsys.Rating
		if err := rows.Scan(&d.UserID, &d.PostID, &d.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		snap.Dislikes = append(snap.Dislikes, d)
	}
	rows.Close()
	return snap, rows.Err()
}

// placeholders renders "?, ?, ..." for IN clauses.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}

func toAnySlice(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
