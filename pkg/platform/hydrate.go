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
	"database/sql"
)

// loadPostViews hydrates post rows with their comments, preserving the
// order of ids. When ShowScore is set the separate counters collapse into a
// Reddit-style score.
func (p *Platform) loadPostViews(tx *sql.Tx, ids []int64) ([]PostView, error) {
	views := make([]PostView, 0, len(ids))
	for _, id := range ids {
		var (
			v        PostView
			original sql.NullInt64
			content  sql.NullString
			quote    sql.NullString
			created  sql.NullString
		)
		err := tx.QueryRow(`
			SELECT post_id, user_id, original_post_id, content, quote_content, created_at,
			       num_likes, num_dislikes, num_shares
			FROM post WHERE post_id = ?`, id,
		).Scan(&v.PostID, &v.UserID, &original, &content, &quote, &created,
			&v.NumLikes, &v.NumDislikes, &v.NumShares)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		if original.Valid {
			o := original.Int64
			v.OriginalPostID = &o
		}
		v.Content = content.String
		if quote.Valid {
			q := quote.String
			v.QuoteContent = &q
		}
		v.CreatedAt = created.String

		comments, err := p.loadComments(tx, v.PostID)
		if err != nil {
			return nil, err
		}
		v.Comments = comments

		if p.cfg.ShowScore {
			score := v.NumLikes - v.NumDislikes
			v.Score = &score
			v.NumLikes, v.NumDislikes = 0, 0
		}
		views = append(views, v)
	}
	return views, nil
}

// loadComments returns the comments of one post in creation order.
func (p *Platform) loadComments(tx *sql.Tx, postID int64) ([]CommentView, error) {
	rows, err := tx.Query(`
		SELECT comment_id, post_id, user_id, COALESCE(content, ''), COALESCE(created_at, ''), num_likes, num_dislikes
		FROM comment WHERE post_id = ? ORDER BY comment_id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []CommentView
	for rows.Next() {
		var c CommentView
		if err := rows.Scan(&c.CommentID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.NumLikes, &c.NumDislikes); err != nil {
			return nil, err
		}
		if p.cfg.ShowScore {
			score := c.NumLikes - c.NumDislikes
			c.Score = &score
			c.NumLikes, c.NumDislikes = 0, 0
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
