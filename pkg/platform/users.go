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

func (p *Platform) handleSignUp(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	info, ok := payload.(SignUpPayload)
	if !ok {
		return nil, nil, fmt.Errorf("sign_up: malformed payload %T", payload)
	}

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM user WHERE user_id = ?", senderID).Scan(&exists); err != nil {
		return nil, nil, err
	}
	if exists > 0 {
		return failure(fmt.Sprintf("user %d already signed up", senderID)), nil, nil
	}

	_, err := tx.Exec(
		"INSERT INTO user (user_id, agent_id, user_name, name, bio, created_at, num_followings, num_followers) VALUES (?, ?, ?, ?, ?, ?, 0, 0)",
		senderID, senderID, info.UserName, info.Name, info.Bio, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"user_name": info.UserName, "name": info.Name, "bio": info.Bio}
	return success(map[string]any{"user_id": senderID}), trace, nil
}

func (p *Platform) handleFollow(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	target, ok := payload.(UserIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("follow: malformed payload %T", payload)
	}
	if target.UserID == senderID {
		return failure("cannot follow yourself"), nil, nil
	}
	if err := p.requireUser(tx, target.UserID); err != nil {
		return failure(err.Error()), nil, nil
	}

	var existing int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM follow WHERE follower_id = ? AND followee_id = ?",
		senderID, target.UserID,
	).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("user %d already follows %d", senderID, target.UserID)), nil, nil
	}

	res, err := tx.Exec(
		"INSERT INTO follow (follower_id, followee_id, created_at) VALUES (?, ?, ?)",
		senderID, target.UserID, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	followID, _ := res.LastInsertId()

	if _, err := tx.Exec("UPDATE user SET num_followings = num_followings + 1 WHERE user_id = ?", senderID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec("UPDATE user SET num_followers = num_followers + 1 WHERE user_id = ?", target.UserID); err != nil {
		return nil, nil, err
	}

	if p.graph != nil {
		p.graph.AddEdge(senderID, target.UserID)
	}

	trace := map[string]any{"follow_id": followID, "followee_id": target.UserID}
	return success(map[string]any{"follow_id": followID}), trace, nil
}

func (p *Platform) handleUnfollow(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	target, ok := payload.(UserIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("unfollow: malformed payload %T", payload)
	}

	var followID int64
	err := tx.QueryRow(
		"SELECT follow_id FROM follow WHERE follower_id = ? AND followee_id = ?",
		senderID, target.UserID,
	).Scan(&followID)
	if err == sql.ErrNoRows {
		return failure(fmt.Sprintf("user %d does not follow %d", senderID, target.UserID)), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec("DELETE FROM follow WHERE follow_id = ?", followID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec("UPDATE user SET num_followings = num_followings - 1 WHERE user_id = ?", senderID); err != nil {
		return nil, nil, err
	}
	if _, err := tx.Exec("UPDATE user SET num_followers = num_followers - 1 WHERE user_id = ?", target.UserID); err != nil {
		return nil, nil, err
	}

	if p.graph != nil {
		p.graph.RemoveEdge(senderID, target.UserID)
	}

	trace := map[string]any{"follow_id": followID, "followee_id": target.UserID}
	return success(map[string]any{"follow_id": followID}), trace, nil
}

func (p *Platform) handleMute(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	target, ok := payload.(UserIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("mute: malformed payload %T", payload)
	}
	if err := p.requireUser(tx, target.UserID); err != nil {
		return failure(err.Error()), nil, nil
	}

	var existing int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM mute WHERE muter_id = ? AND mutee_id = ?",
		senderID, target.UserID,
	).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("user %d already muted %d", senderID, target.UserID)), nil, nil
	}

	res, err := tx.Exec(
		"INSERT INTO mute (muter_id, mutee_id, created_at) VALUES (?, ?, ?)",
		senderID, target.UserID, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	muteID, _ := res.LastInsertId()

	trace := map[string]any{"mute_id": muteID, "mutee_id": target.UserID}
	return success(map[string]any{"mute_id": muteID}), trace, nil
}

func (p *Platform) handleUnmute(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	target, ok := payload.(UserIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("unmute: malformed payload %T", payload)
	}

	var muteID int64
	err := tx.QueryRow(
		"SELECT mute_id FROM mute WHERE muter_id = ? AND mutee_id = ?",
		senderID, target.UserID,
	).Scan(&muteID)
	if err == sql.ErrNoRows {
		return failure(fmt.Sprintf("user %d has not muted %d", senderID, target.UserID)), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec("DELETE FROM mute WHERE mute_id = ?", muteID); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"mute_id": muteID, "mutee_id": target.UserID}
	return success(map[string]any{"mute_id": muteID}), trace, nil
}

func (p *Platform) handleSearchUser(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	q, ok := payload.(QueryPayload)
	if !ok {
		return nil, nil, fmt.Errorf("search_user: malformed payload %T", payload)
	}

	pattern := "%" + q.Query + "%"
	rows, err := tx.Query(`
		SELECT user_id, agent_id, user_name, COALESCE(name, ''), COALESCE(bio, ''), COALESCE(created_at, ''), num_followings, num_followers
		FROM user
		WHERE user_name LIKE ? OR name LIKE ? OR bio LIKE ? OR CAST(user_id AS TEXT) = ?`,
		pattern, pattern, pattern, q.Query,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var users []UserView
	for rows.Next() {
		var u UserView
		if err := rows.Scan(&u.UserID, &u.AgentID, &u.UserName, &u.Name, &u.Bio, &u.CreatedAt, &u.NumFollowings, &u.NumFollowers); err != nil {
			return nil, nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(users) == 0 {
		return failure(fmt.Sprintf("no users found matching %q", q.Query)), nil, nil
	}

	return success(map[string]any{"users": users}), nil, nil
}

// requireUser fails with a caller-visible reason when a user row is absent.
func (p *Platform) requireUser(tx *sql.Tx, userID int64) error {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM user WHERE user_id = ?", userID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("user %d does not exist", userID)
	}
	return nil
}
