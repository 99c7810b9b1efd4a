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

func (p *Platform) handleCreateComment(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(CommentPayload)
	if !ok {
		return nil, nil, fmt.Errorf("create_comment: malformed payload %T", payload)
	}

	rootID, err := p.rootPostID(tx, body.PostID)
	if err != nil {
		return failure(err.Error()), nil, nil
	}

	res, err := tx.Exec(
		"INSERT INTO comment (post_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
		rootID, senderID, body.Content, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	commentID, _ := res.LastInsertId()

	trace := map[string]any{"comment_id": commentID, "post_id": rootID, "content": body.Content}
	return success(map[string]any{"comment_id": commentID}), trace, nil
}

func (p *Platform) handleLikeComment(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.rateComment(tx, senderID, payload, "comment_like", "num_likes")
}

func (p *Platform) handleDislikeComment(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.rateComment(tx, senderID, payload, "comment_dislike", "num_dislikes")
}

func (p *Platform) handleUnlikeComment(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.unrateComment(tx, senderID, payload, "comment_like", "num_likes")
}

func (p *Platform) handleUndoDislikeComment(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return p.unrateComment(tx, senderID, payload, "comment_dislike", "num_dislikes")
}

func (p *Platform) rateComment(tx *sql.Tx, senderID int64, payload any, table, counter string) (Result, any, error) {
	target, ok := payload.(CommentIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("%s: malformed payload %T", table, payload)
	}

	var authorID int64
	err := tx.QueryRow("SELECT user_id FROM comment WHERE comment_id = ?", target.CommentID).Scan(&authorID)
	if err == sql.ErrNoRows {
		return failure(fmt.Sprintf("comment %d does not exist", target.CommentID)), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !p.cfg.AllowSelfRating && authorID == senderID {
		return failure("users are not allowed to like/dislike their own comments"), nil, nil
	}

	var existing int
	if err := tx.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ? AND comment_id = ?", table),
		senderID, target.CommentID,
	).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("user %d already rated comment %d", senderID, target.CommentID)), nil, nil
	}

	other := "comment_dislike"
	if table == "comment_dislike" {
		other = "comment_like"
	}
	var conflict int
	if err := tx.QueryRow(
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ? AND comment_id = ?", other),
		senderID, target.CommentID,
	).Scan(&conflict); err != nil {
		return nil, nil, err
	}
	if conflict > 0 {
		return failure(fmt.Sprintf("user %d holds the opposite rating on comment %d; undo it first", senderID, target.CommentID)), nil, nil
	}

	res, err := tx.Exec(
		fmt.Sprintf("INSERT INTO %s (user_id, comment_id, created_at) VALUES (?, ?, ?)", table),
		senderID, target.CommentID, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	rateID, _ := res.LastInsertId()

	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE comment SET %s = %s + 1 WHERE comment_id = ?", counter, counter), target.CommentID,
	); err != nil {
		return nil, nil, err
	}

	idKey := table + "_id"
	trace := map[string]any{"comment_id": target.CommentID, idKey: rateID}
	return success(map[string]any{idKey: rateID, "comment_id": target.CommentID}), trace, nil
}

func (p *Platform) unrateComment(tx *sql.Tx, senderID int64, payload any, table, counter string) (Result, any, error) {
	target, ok := payload.(CommentIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("undo %s: malformed payload %T", table, payload)
	}

	idCol := table + "_id"
	var rateID int64
	err := tx.QueryRow(
		fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? AND comment_id = ?", idCol, table),
		senderID, target.CommentID,
	).Scan(&rateID)
	if err == sql.ErrNoRows {
		return failure(fmt.Sprintf("user %d has no rating on comment %d", senderID, target.CommentID)), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, idCol), rateID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec(
		fmt.Sprintf("UPDATE comment SET %s = %s - 1 WHERE comment_id = ?", counter, counter), target.CommentID,
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"comment_id": target.CommentID, idCol: rateID}
	return success(map[string]any{idCol: rateID, "comment_id": target.CommentID}), trace, nil
}
