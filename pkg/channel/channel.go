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

// Package channel couples many concurrent agents to the single platform
// consumer. Each request carries a fresh correlation id; the sender blocks
// until the response with the matching id is routed back to it.
package channel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQueueSize is the default buffer size of the inbound request queue.
const DefaultQueueSize = 4096

// Request is one message from an agent to the platform.
type Request struct {
	ID      string
	AgentID int64
	Payload any
	Action  ActionType
}

// Response is the platform's reply to a single request.
type Response struct {
	ID      string
	AgentID int64
	Result  any
}

// Channel is the request/response bus between agents and the platform.
// Many goroutines may send concurrently; exactly one consumer receives.
// All operations are safe for concurrent use.
type Channel struct {
	requests chan *Request

	mu      sync.Mutex
	waiters map[string]chan *Response

	logger *zap.Logger
	closed atomic.Bool

	totalSent      atomic.Int64
	totalDelivered atomic.Int64
	totalDropped   atomic.Int64
}

// New creates a channel with the default queue size.
func New(logger *zap.Logger) *Channel {
	return NewWithSize(DefaultQueueSize, logger)
}

// NewWithSize creates a channel with an explicit inbound queue size.
// Senders block when the queue is full, which backpressures producers.
func NewWithSize(size int, logger *zap.Logger) *Channel {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		requests: make(chan *Request, size),
		waiters:  make(map[string]chan *Response),
		logger:   logger,
	}
}

// Send enqueues a request and blocks until the matching response arrives or
// ctx is cancelled. Cancellation abandons the wait: a platform commit that
// races with cancellation is not rolled back, the caller simply never
// observes the result.
func (c *Channel) Send(ctx context.Context, agentID int64, payload any, action ActionType) (any, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("channel is closed")
	}

	id := uuid.NewString()
	// Buffered so a reply never blocks the platform consumer.
	replyChan := make(chan *Response, 1)

	c.mu.Lock()
	c.waiters[id] = replyChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	req := &Request{ID: id, AgentID: agentID, Payload: payload, Action: action}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return nil, fmt.Errorf("send %s canceled: %w", action, ctx.Err())
	}
	c.totalSent.Add(1)

	c.logger.Debug("request sent",
		zap.String("request_id", id),
		zap.Int64("agent_id", agentID),
		zap.String("action", action.String()))

	select {
	case resp := <-replyChan:
		c.totalDelivered.Add(1)
		return resp.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for %s canceled: %w", action, ctx.Err())
	}
}

// Post enqueues a request without waiting for a response. Used for control
// tags such as exit, where the platform replies to nobody.
func (c *Channel) Post(ctx context.Context, agentID int64, payload any, action ActionType) error {
	if c.closed.Load() {
		return fmt.Errorf("channel is closed")
	}
	req := &Request{ID: uuid.NewString(), AgentID: agentID, Payload: payload, Action: action}
	select {
	case c.requests <- req:
		c.totalSent.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("post %s canceled: %w", action, ctx.Err())
	}
}

// Receive dequeues the next request. Only the platform consumer calls this.
func (c *Channel) Receive(ctx context.Context) (*Request, error) {
	select {
	case req, ok := <-c.requests:
		if !ok {
			return nil, fmt.Errorf("channel is closed")
		}
		return req, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reply routes a response to the waiter registered under its request id.
// Responses to abandoned requests are dropped.
func (c *Channel) Reply(resp *Response) {
	c.mu.Lock()
	replyChan, ok := c.waiters[resp.ID]
	c.mu.Unlock()

	if !ok {
		c.totalDropped.Add(1)
		c.logger.Debug("response dropped, no waiter",
			zap.String("request_id", resp.ID),
			zap.Int64("agent_id", resp.AgentID))
		return
	}

	// The waiter channel is buffered with capacity 1 and each id is replied
	// to at most once, so this never blocks.
	replyChan <- resp
}

// Close marks the channel closed. Idempotent.
func (c *Channel) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Info("channel closed",
		zap.Int64("total_sent", c.totalSent.Load()),
		zap.Int64("total_delivered", c.totalDelivered.Load()),
		zap.Int64("total_dropped", c.totalDropped.Load()))
	return nil
}
