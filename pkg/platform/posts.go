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
)

func (p *Platform) handleCreatePost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(ContentPayload)
	if !ok {
		return nil, nil, fmt.Errorf("create_post: malformed payload %T", payload)
	}

	res, err := tx.Exec(
		"INSERT INTO post (user_id, content, created_at) VALUES (?, ?, ?)",
		senderID, body.Content, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	postID, _ := res.LastInsertId()

	trace := map[string]any{"post_id": postID, "content": body.Content}
	return success(map[string]any{"post_id": postID}), trace, nil
}

func (p *Platform) handleRepost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	target, ok := payload.(PostIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("repost: malformed payload %T", payload)
	}

	rootID, err := p.rootPostID(tx, target.PostID)
	if err != nil {
		return failure(err.Error()), nil, nil
	}

	// Repost idempotence: at most one repost of a given root per user.
	var existing int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM post WHERE user_id = ? AND original_post_id = ? AND content IS NULL AND quote_content IS NULL",
		senderID, rootID,
	).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("user %d already reposted post %d", senderID, rootID)), nil, nil
	}

	res, err := tx.Exec(
		"INSERT INTO post (user_id, original_post_id, created_at) VALUES (?, ?, ?)",
		senderID, rootID, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	postID, _ := res.LastInsertId()

	if _, err := tx.Exec("UPDATE post SET num_shares = num_shares + 1 WHERE post_id = ?", rootID); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"post_id": postID, "original_post_id": rootID}
	return success(map[string]any{"post_id": postID}), trace, nil
}

func (p *Platform) handleQuotePost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	quote, ok := payload.(QuotePayload)
	if !ok {
		return nil, nil, fmt.Errorf("quote_post: malformed payload %T", payload)
	}

	rootID, err := p.rootPostID(tx, quote.PostID)
	if err != nil {
		return failure(err.Error()), nil, nil
	}

	var rootContent sql.NullString
	if err := tx.QueryRow("SELECT content FROM post WHERE post_id = ?", rootID).Scan(&rootContent); err != nil {
		return nil, nil, err
	}

	res, err := tx.Exec(
		"INSERT INTO post (user_id, original_post_id, content, quote_content, created_at) VALUES (?, ?, ?, ?, ?)",
		senderID, rootID, rootContent.String, quote.Quote, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	postID, _ := res.LastInsertId()

	trace := map[string]any{"post_id": postID, "original_post_id": rootID, "quote_content": quote.Quote}
	return success(map[string]any{"post_id": postID}), trace, nil
}

func (p *Platform) handleLikePost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.ratePost(tx, senderID, payload, "like", "num_likes")
}

func (p *Platform) handleDislikePost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.ratePost(tx, senderID, payload, "dislike", "num_dislikes")
}

func (p *Platform) handleUnlikePost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.unratePost(tx, senderID, payload, "like", "num_likes")
}

func (p *Platform) handleUndoDislikePost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.unratePost(tx, senderID, payload, "dislike", "num_dislikes")
}

// ratePost inserts a like or dislike row against the canonical root and
// bumps the matching counter. table is "like" or "dislike".
func (p *Platform) ratePost(tx *sql.Tx, senderID int64, payload any, table, counter string) (Result, any, error) {
	target, ok := payload.(PostIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("%s_post: malformed payload %T", table, payload)
	}

	rootID, err := p.rootPostID(tx, target.PostID)
	if err != nil {
		return failure(err.Error()), nil, nil
	}

	var authorID int64
	if err := tx.QueryRow("SELECT user_id FROM post WHERE post_id = ?", rootID).Scan(&authorID); err != nil {
		return nil, nil, err
	}
	if !p.cfg.AllowSelfRating && authorID == senderID {
		return failure("users are not allowed to like/dislike their own posts"), nil, nil
	}

	var existing int
	if err := tx.QueryRow(
		fmt.Sprintf(`SELECT COUNT(*) FROM "%s" WHERE user_id = ? AND post_id = ?`, table),
		senderID, rootID,
	).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("user %d already %sd post %d", senderID, table, rootID)), nil, nil
	}

	// Like and dislike are mutually exclusive per (user, post).
	other := "dislike"
	if table == "dislike" {
		other = "like"
	}
	var conflict int
	if err := tx.QueryRow(
		fmt.Sprintf(`SELECT COUNT(*) FROM "%s" WHERE user_id = ? AND post_id = ?`, other),
		senderID, rootID,
	).Scan(&conflict); err != nil {
		return nil, nil, err
	}
	if conflict > 0 {
		return failure(fmt.Sprintf("user %d holds a %s on post %d; undo it first", senderID, other, rootID)), nil, nil
	}

	res, err := tx.Exec(
		fmt.Sprintf(`INSERT INTO "%s" (user_id, post_id, created_at) VALUES (?, ?, ?)`, table),
		senderID, rootID, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	rateID, _ := res.LastInsertId()

	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE post SET %s = %s + 1 WHERE post_id = ?", counter, counter), rootID,
	); err != nil {
		return nil, nil, err
	}

	idKey := table + "_id"
	trace := map[string]any{"post_id": rootID, idKey: rateID}
	return success(map[string]any{idKey: rateID, "post_id": rootID}), trace, nil
}

// unratePost removes a prior like or dislike; missing records fail.
func (p *Platform) unratePost(tx *sql.Tx, senderID int64, payload any, table, counter string) (Result, any, error) {
	target, ok := payload.(PostIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("undo %s_post: malformed payload %T", table, payload)
	}

	rootID, err := p.rootPostID(tx, target.PostID)
	if err != nil {
		return failure(err.Error()), nil, nil
	}

	idCol := table + "_id"
	var rateID int64
	err = tx.QueryRow(
		fmt.Sprintf(`SELECT %s FROM "%s" WHERE user_id = ? AND post_id = ?`, idCol, table),
		senderID, rootID,
	).Scan(&rateID)
	if err == sql.ErrNoRows {
		return failure(fmt.Sprintf("user %d has no %s on post %d", senderID, table, rootID)), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM "%s" WHERE %s = ?`, table, idCol), rateID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE post SET %s = %s - 1 WHERE post_id = ?", counter, counter), rootID,
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"post_id": rootID, idCol: rateID}
	return success(map[string]any{idCol: rateID, "post_id": rootID}), trace, nil
}

func (p *Platform) handleReportPost(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	report, ok := payload.(ReportPayload)
	if !ok {
		return nil, nil, fmt.Errorf("report_post: malformed payload %T", payload)
	}

	rootID, err := p.rootPostID(tx, report.PostID)
	if err != nil {
		return failure(err.Error()), nil, nil
	}

	var existing int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM report WHERE user_id = ? AND post_id = ?",
		senderID, rootID,
	).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("user %d already reported post %d", senderID, rootID)), nil, nil
	}

	res, err := tx.Exec(
		"INSERT INTO report (user_id, post_id, reason, created_at) VALUES (?, ?, ?, ?)",
		senderID, rootID, report.Reason, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	reportID, _ := res.LastInsertId()

	if _, err := tx.Exec("UPDATE post SET num_reports = num_reports + 1 WHERE post_id = ?", rootID); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"post_id": rootID, "report_id": reportID, "reason": report.Reason}
	return success(map[string]any{"report_id": reportID, "post_id": rootID}), trace, nil
}

func (p *Platform) handleSearchPosts(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	q, ok := payload.(QueryPayload)
	if !ok {
		return nil, nil, fmt.Errorf("search_posts: malformed payload %T", payload)
	}

	pattern := "%" + q.Query + "%"
	ids, err := collectIDs(tx.Query(`
		SELECT post_id FROM post
		WHERE content LIKE ? OR quote_content LIKE ? OR CAST(post_id AS TEXT) = ? OR CAST(user_id AS TEXT) = ?
		ORDER BY post_id`,
		pattern, pattern, q.Query, q.Query,
	))
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return failure(fmt.Sprintf("no posts found matching %q", q.Query)), nil, nil
	}

	posts, err := p.loadPostViews(tx, ids)
	if err != nil {
		return nil, nil, err
	}
	return success(map[string]any{"posts": posts}), nil, nil
}

// rootPostID canonicalizes any post id to its root. Repost chains are
// flattened at creation time, so one hop suffices.
func (p *Platform) rootPostID(tx *sql.Tx, postID int64) (int64, error) {
	var original sql.NullInt64
	err := tx.QueryRow("SELECT original_post_id FROM post WHERE post_id = ?", postID).Scan(&original)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("post %d does not exist", postID)
	}
	if err != nil {
		return 0, err
	}
	if original.Valid {
		return original.Int64, nil
	}
	return postID, nil
}

// collectIDs drains a single-column id query.
func collectIDs(rows *sql.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
