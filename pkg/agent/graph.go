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
package agent

import (
	"sort"
	"sync"
)

// Edge is one directed follow relation.
type Edge struct {
	FollowerID int64
	FolloweeID int64
}

// AgentGraph is the in-memory registry of agents and their follow edges,
// mirroring the follow table. The platform mutates edges inside its
// serialized step; reads may come from anywhere, so access is locked.
type AgentGraph struct {
	mu     sync.RWMutex
	agents map[int64]*Agent
	edges  map[Edge]struct{}
}

// NewAgentGraph creates an empty graph.
func NewAgentGraph() *AgentGraph {
	return &AgentGraph{
		agents: make(map[int64]*Agent),
		edges:  make(map[Edge]struct{}),
	}
}

// AddAgent registers an agent node.
func (g *AgentGraph) AddAgent(a *Agent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.agents[a.ID] = a
}

// RemoveAgent removes an agent and every edge touching it.
func (g *AgentGraph) RemoveAgent(agentID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.agents, agentID)
	for edge := range g.edges {
		if edge.FollowerID == agentID || edge.FolloweeID == agentID {
			delete(g.edges, edge)
		}
	}
}

// AddEdge records a follow relation. Self-loops are ignored.
func (g *AgentGraph) AddEdge(followerID, followeeID int64) {
	if followerID == followeeID {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[Edge{FollowerID: followerID, FolloweeID: followeeID}] = struct{}{}
}

// RemoveEdge removes a follow relation if present.
func (g *AgentGraph) RemoveEdge(followerID, followeeID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, Edge{FollowerID: followerID, FolloweeID: followeeID})
}

// GetAgent returns the agent registered under id, or nil.
func (g *AgentGraph) GetAgent(agentID int64) *Agent {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.agents[agentID]
}

// GetAgents returns the agents for the given ids, or every agent in id
// order when ids is empty. Unknown ids are skipped.
func (g *AgentGraph) GetAgents(ids ...int64) []*Agent {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(ids) == 0 {
		ids = make([]int64, 0, len(g.agents))
		for id := range g.agents {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	agents := make([]*Agent, 0, len(ids))
	for _, id := range ids {
		if a, ok := g.agents[id]; ok {
			agents = append(agents, a)
		}
	}
	return agents
}

// Edges returns every follow edge, ordered for deterministic iteration.
func (g *AgentGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]Edge, 0, len(g.edges))
	for edge := range g.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FollowerID != edges[j].FollowerID {
			return edges[i].FollowerID < edges[j].FollowerID
		}
		return edges[i].FolloweeID < edges[j].FolloweeID
	})
	return edges
}

// NumNodes returns the number of registered agents.
func (g *AgentGraph) NumNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.agents)
}

// NumEdges returns the number of follow edges.
func (g *AgentGraph) NumEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Reset drops all agents and edges.
func (g *AgentGraph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.agents = make(map[int64]*Agent)
	g.edges = make(map[Edge]struct{})
}
