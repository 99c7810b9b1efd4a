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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/llm"
	"go.uber.org/zap"
)

// SeedProfile is one ingested user profile plus its seed relations. Agent
// ids are assigned by row order.
type SeedProfile struct {
	AgentID           int64
	Info              UserInfo
	FollowingAgentIDs []int64
	PreviousPosts     []string
}

// LoadTwitterProfiles reads the Twitter-mode CSV. Recognized columns are
// username, name, description, user_char, following_agentid_list and
// previous_tweets; anything else (following_count and followers_count
// included) is ignored, and absent optional columns default to empty.
func LoadTwitterProfiles(path string) ([]SeedProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var profiles []SeedProfile
	for agentID := int64(0); ; agentID++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", agentID+1, err)
		}

		p := SeedProfile{
			AgentID: agentID,
			Info: UserInfo{
				UserName:    field(row, "username"),
				Name:        field(row, "name"),
				Description: field(row, "description"),
				Profile:     Profile{Persona: field(row, "user_char")},
			},
			PreviousPosts: parsePyList(field(row, "previous_tweets")),
		}
		for _, s := range parsePyList(field(row, "following_agentid_list")) {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				continue
			}
			p.FollowingAgentIDs = append(p.FollowingAgentIDs, id)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// redditProfile is the Reddit-mode JSON entry shape.
type redditProfile struct {
	UserName string `json:"username"`
	RealName string `json:"realname"`
	Bio      string `json:"bio"`
	Persona  string `json:"persona"`
	MBTI     string `json:"mbti"`
	Gender   string `json:"gender"`
	Age      any    `json:"age"`
	Country  string `json:"country"`
}

// LoadRedditProfiles reads the Reddit-mode JSON array.
func LoadRedditProfiles(path string) ([]SeedProfile, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile JSON: %w", err)
	}

	var raw []redditProfile
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}

	profiles := make([]SeedProfile, 0, len(raw))
	for i, r := range raw {
		age := ""
		switch v := r.Age.(type) {
		case string:
			age = v
		case float64:
			age = strconv.Itoa(int(v))
		}
		profiles = append(profiles, SeedProfile{
			AgentID: int64(i),
			Info: UserInfo{
				UserName:    r.UserName,
				Name:        r.RealName,
				Description: r.Bio,
				Profile: Profile{
					Persona: r.Persona,
					MBTI:    r.MBTI,
					Gender:  r.Gender,
					Age:     age,
					Country: r.Country,
				},
			},
		})
	}
	return profiles, nil
}

// GenerateAgents builds agents from seed profiles, registers them in a
// fresh graph, and seeds the follow edges declared by the profiles.
func GenerateAgents(profiles []SeedProfile, ch *channel.Channel, provider llm.Provider, opts Options) (*AgentGraph, []*Agent) {
	graph := NewAgentGraph()
	agents := make([]*Agent, 0, len(profiles))

	for _, p := range profiles {
		a := New(p.AgentID, p.Info, ch, provider, opts)
		graph.AddAgent(a)
		agents = append(agents, a)
	}
	for _, p := range profiles {
		for _, followee := range p.FollowingAgentIDs {
			graph.AddEdge(p.AgentID, followee)
		}
	}

	if opts.Logger != nil {
		opts.Logger.Info("agents generated",
			zap.Int("agents", len(agents)),
			zap.Int("seed_edges", graph.NumEdges()))
	}
	return graph, agents
}

// parsePyList parses the Python-style list literals profile generators
// emit: ['a', "b"] or [1, 2, 3]. Elements are returned as raw strings with
// quotes stripped; an empty or malformed literal yields nil.
func parsePyList(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil
	}
	body := s[1 : len(s)-1]

	var (
		items   []string
		current strings.Builder
		quote   byte
		escaped bool
		seen    bool
	)
	flush := func() {
		item := strings.TrimSpace(current.String())
		if item != "" || seen {
			items = append(items, item)
		}
		current.Reset()
		seen = false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case escaped:
			current.WriteByte(c)
			escaped = false
		case quote != 0:
			switch c {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			default:
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			seen = true
		case c == ',':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 || seen {
		flush()
	}
	return items
}
