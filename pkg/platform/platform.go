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

// Package platform implements the single-writer actor that owns all
// simulation state. Exactly one goroutine consumes the channel; every
// handler runs to completion between dequeue and reply, so the store never
// observes concurrent mutations.
package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/clock"
	"github.com/tunglinwood/oasis/pkg/recsys"
)

// SocialGraph mirrors follow edges outside the store. The platform mutates
// it inside the same serialized step that commits the follow row.
type SocialGraph interface {
	AddEdge(followerID, followeeID int64)
	RemoveEdge(followerID, followeeID int64)
}

// Config holds the recognized platform options.
type Config struct {
	// RecsysType selects the recommendation strategy.
	RecsysType recsys.Type
	// RefreshRecPostCount bounds posts drawn from the rec pool per refresh.
	RefreshRecPostCount int
	// MaxRecPostLen bounds rec rows per user.
	MaxRecPostLen int
	// FollowingPostCount is how many top-liked followee posts join each
	// non-Reddit refresh.
	FollowingPostCount int
	// AllowSelfRating permits rating one's own posts and comments.
	AllowSelfRating bool
	// ShowScore displays Reddit-style score instead of separate counters.
	ShowScore bool
	// TrendNumDays bounds the trend window in virtual days.
	TrendNumDays int
	// TrendTopK bounds the trend result size.
	TrendTopK int
	// ReportThreshold is recorded for future moderation; informative only.
	ReportThreshold int
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		RecsysType:          recsys.TypeRandom,
		RefreshRecPostCount: 5,
		MaxRecPostLen:       50,
		FollowingPostCount:  3,
		TrendNumDays:        7,
		TrendTopK:           10,
		ReportThreshold:     10,
	}
}

// handlerFunc applies one request inside tx. A non-nil traceInfo marks the
// request state-changing: dispatch records exactly one trace row for it.
type handlerFunc func(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (result Result, traceInfo any, err error)

// Platform is the serializing actor.
type Platform struct {
	store  *Store
	ch     *channel.Channel
	clk    clock.Clock
	engine recsys.Engine
	graph  SocialGraph
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand

	handlers map[channel.ActionType]handlerFunc
	done     chan struct{}
}

// New creates a platform over an open store. graph may be nil when no
// in-memory mirror is wanted (e.g. storage-only tests).
func New(store *Store, ch *channel.Channel, clk clock.Clock, engine recsys.Engine, graph SocialGraph, cfg Config, logger *zap.Logger) *Platform {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshRecPostCount <= 0 {
		cfg.RefreshRecPostCount = DefaultConfig().RefreshRecPostCount
	}
	if cfg.MaxRecPostLen <= 0 {
		cfg.MaxRecPostLen = DefaultConfig().MaxRecPostLen
	}
	if cfg.TrendTopK <= 0 {
		cfg.TrendTopK = DefaultConfig().TrendTopK
	}
	if cfg.TrendNumDays <= 0 {
		cfg.TrendNumDays = DefaultConfig().TrendNumDays
	}

	p := &Platform{
		store:  store,
		ch:     ch,
		clk:    clk,
		engine: engine,
		graph:  graph,
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		done:   make(chan struct{}),
	}
	p.handlers = map[channel.ActionType]handlerFunc{
		channel.ActionSignUp:             p.handleSignUp,
		channel.ActionRefresh:            p.handleRefresh,
		channel.ActionCreatePost:         p.handleCreatePost,
		channel.ActionRepost:             p.handleRepost,
		channel.ActionQuotePost:          p.handleQuotePost,
		channel.ActionLikePost:           p.handleLikePost,
		channel.ActionUnlikePost:         p.handleUnlikePost,
		channel.ActionDislikePost:        p.handleDislikePost,
		channel.ActionUndoDislikePost:    p.handleUndoDislikePost,
		channel.ActionReportPost:         p.handleReportPost,
		channel.ActionFollow:             p.handleFollow,
		channel.ActionUnfollow:           p.handleUnfollow,
		channel.ActionMute:               p.handleMute,
		channel.ActionUnmute:             p.handleUnmute,
		channel.ActionSearchUser:         p.handleSearchUser,
		channel.ActionSearchPosts:        p.handleSearchPosts,
		channel.ActionTrend:              p.handleTrend,
		channel.ActionCreateComment:      p.handleCreateComment,
		channel.ActionLikeComment:        p.handleLikeComment,
		channel.ActionUnlikeComment:      p.handleUnlikeComment,
		channel.ActionDislikeComment:     p.handleDislikeComment,
		channel.ActionUndoDislikeComment: p.handleUndoDislikeComment,
		channel.ActionDoNothing:          p.handleDoNothing,
		channel.ActionInterview:          p.handleInterview,
		channel.ActionUpdateRecTable:     p.handleUpdateRecTable,
		channel.ActionCreateGroup:        p.handleCreateGroup,
		channel.ActionJoinGroup:          p.handleJoinGroup,
		channel.ActionLeaveGroup:         p.handleLeaveGroup,
		channel.ActionSendToGroup:        p.handleSendToGroup,
		channel.ActionListenFromGroup:    p.handleListenFromGroup,
		channel.ActionSignUpProduct:      p.handleSignUpProduct,
		channel.ActionPurchaseProduct:    p.handlePurchaseProduct,
	}
	return p
}

// Done closes once the platform has drained up to the exit tag and stopped.
func (p *Platform) Done() <-chan struct{} {
	return p.done
}

// Run consumes the channel until the exit tag arrives or ctx is cancelled.
// It is the only goroutine that touches the store.
func (p *Platform) Run(ctx context.Context) error {
	defer close(p.done)

	for {
		req, err := p.ch.Receive(ctx)
		if err != nil {
			return err
		}
		if req.Action == channel.ActionExit {
			p.logger.Info("platform exiting")
			return nil
		}

		result := p.apply(ctx, req)
		p.ch.Reply(&channel.Response{ID: req.ID, AgentID: req.AgentID, Result: result})
	}
}

// apply runs a single request to completion: one transaction carrying the
// mutation and its trace row, or a failure reply and no trace at all.
func (p *Platform) apply(ctx context.Context, req *channel.Request) Result {
	handler, ok := p.handlers[req.Action]
	if !ok {
		return failure(fmt.Sprintf("unknown action: %s", req.Action))
	}

	tx, err := p.store.Begin()
	if err != nil {
		p.logger.Error("begin failed", zap.String("action", req.Action.String()), zap.Error(err))
		return failure(fmt.Sprintf("storage error: %v", err))
	}

	result, traceInfo, err := handler(ctx, tx, req.AgentID, req.Payload)
	if err != nil {
		_ = tx.Rollback()
		p.logger.Warn("handler error",
			zap.String("action", req.Action.String()),
			zap.Int64("agent_id", req.AgentID),
			zap.Error(err))
		return failure(err.Error())
	}
	if ok, _ := result["success"].(bool); !ok {
		_ = tx.Rollback()
		return result
	}

	if traceInfo != nil {
		if err := p.addTrace(tx, req.AgentID, req.Action, traceInfo); err != nil {
			_ = tx.Rollback()
			p.logger.Error("trace failed", zap.String("action", req.Action.String()), zap.Error(err))
			return failure(fmt.Sprintf("storage error: %v", err))
		}
	}
	if err := tx.Commit(); err != nil {
		p.logger.Error("commit failed", zap.String("action", req.Action.String()), zap.Error(err))
		return failure(fmt.Sprintf("storage error: %v", err))
	}

	p.logger.Debug("request applied",
		zap.String("action", req.Action.String()),
		zap.Int64("agent_id", req.AgentID))
	return result
}

// addTrace appends the audit row for a committed action.
func (p *Platform) addTrace(tx *sql.Tx, userID int64, action channel.ActionType, info any) error {
	blob, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal trace info: %w", err)
	}
	_, err = tx.Exec(
		"INSERT INTO trace (user_id, created_at, action, info) VALUES (?, ?, ?, ?)",
		userID, p.clk.Now(), action.String(), string(blob),
	)
	return err
}

// now stamps mutations with virtual time.
func (p *Platform) now() string {
	return p.clk.Now()
}
