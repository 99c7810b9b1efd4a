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

func (p *Platform) handleCreateGroup(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(GroupNamePayload)
	if !ok {
		return nil, nil, fmt.Errorf("create_group: malformed payload %T", payload)
	}

	res, err := tx.Exec(
		"INSERT INTO user_group (name, created_at) VALUES (?, ?)",
		body.Name, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	groupID, _ := res.LastInsertId()

	// The creator is a member from the start.
	if _, err := tx.Exec(
		"INSERT INTO group_member (group_id, agent_id, joined_at) VALUES (?, ?, ?)",
		groupID, senderID, p.now(),
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"group_id": groupID, "name": body.Name}
	return success(map[string]any{"group_id": groupID}), trace, nil
}

func (p *Platform) handleJoinGroup(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(GroupIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("join_group: malformed payload %T", payload)
	}
	if err := p.requireGroup(tx, body.GroupID); err != nil {
		return failure(err.Error()), nil, nil
	}

	member, err := p.isGroupMember(tx, body.GroupID, senderID)
	if err != nil {
		return nil, nil, err
	}
	if member {
		return failure(fmt.Sprintf("agent %d is already in group %d", senderID, body.GroupID)), nil, nil
	}

	if _, err := tx.Exec(
		"INSERT INTO group_member (group_id, agent_id, joined_at) VALUES (?, ?, ?)",
		body.GroupID, senderID, p.now(),
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"group_id": body.GroupID}
	return success(map[string]any{"group_id": body.GroupID}), trace, nil
}

func (p *Platform) handleLeaveGroup(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(GroupIDPayload)
	if !ok {
		return nil, nil, fmt.Errorf("leave_group: malformed payload %T", payload)
	}

	member, err := p.isGroupMember(tx, body.GroupID, senderID)
	if err != nil {
		return nil, nil, err
	}
	if !member {
		return failure(fmt.Sprintf("agent %d is not in group %d", senderID, body.GroupID)), nil, nil
	}

	if _, err := tx.Exec(
		"DELETE FROM group_member WHERE group_id = ? AND agent_id = ?",
		body.GroupID, senderID,
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"group_id": body.GroupID}
	return success(map[string]any{"group_id": body.GroupID}), trace, nil
}

func (p *Platform) handleSendToGroup(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(GroupMessagePayload)
	if !ok {
		return nil, nil, fmt.Errorf("send_to_group: malformed payload %T", payload)
	}

	member, err := p.isGroupMember(tx, body.GroupID, senderID)
	if err != nil {
		return nil, nil, err
	}
	if !member {
		return failure(fmt.Sprintf("agent %d is not a member of group %d", senderID, body.GroupID)), nil, nil
	}

	res, err := tx.Exec(
		"INSERT INTO group_message (group_id, sender_id, content, sent_at) VALUES (?, ?, ?, ?)",
		body.GroupID, senderID, body.Text, p.now(),
	)
	if err != nil {
		return nil, nil, err
	}
	messageID, _ := res.LastInsertId()

	trace := map[string]any{"message_id": messageID, "group_id": body.GroupID, "text": body.Text}
	return success(map[string]any{"message_id": messageID}), trace, nil
}

func (p *Platform) handleListenFromGroup(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	rows, err := tx.Query(`
		SELECT m.message_id, m.group_id, m.sender_id, COALESCE(m.content, ''), COALESCE(m.sent_at, '')
		FROM group_message m
		JOIN group_member g ON g.group_id = m.group_id
		WHERE g.agent_id = ?
		ORDER BY m.message_id`, senderID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var messages []GroupMessageView
	for rows.Next() {
		var m GroupMessageView
		if err := rows.Scan(&m.MessageID, &m.GroupID, &m.SenderID, &m.Content, &m.SentAt); err != nil {
			return nil, nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return success(map[string]any{"messages": messages}), nil, nil
}

func (p *Platform) requireGroup(tx *sql.Tx, groupID int64) error {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM user_group WHERE group_id = ?", groupID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("group %d does not exist", groupID)
	}
	return nil
}

func (p *Platform) isGroupMember(tx *sql.Tx, groupID, agentID int64) (bool, error) {
	var count int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM group_member WHERE group_id = ? AND agent_id = ?",
		groupID, agentID,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
