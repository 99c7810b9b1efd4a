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
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/channel"
	"github.com/tunglinwood/oasis/pkg/env"
)

// interventionFile is the on-disk shape of a scripted intervention batch: a
// JSON array of actions to issue on the next step boundary.
type interventionFile []struct {
	AgentID int64          `json:"agent_id"`
	Action  string         `json:"action"`
	Args    map[string]any `json:"args"`
}

// interventionWatcher picks up .json intervention files dropped into a
// directory between steps.
type interventionWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu       sync.Mutex
	consumed map[string]bool
}

// watchInterventions starts watching dir for intervention files.
func watchInterventions(dir string, logger *zap.Logger) (*interventionWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &interventionWatcher{
		dir:      dir,
		watcher:  fsWatcher,
		logger:   logger,
		consumed: make(map[string]bool),
	}
	go w.loop()
	return w, nil
}

// loop drains watcher events; files are only read at step boundaries, the
// events just give the operator immediate feedback.
func (w *interventionWatcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) && strings.HasSuffix(event.Name, ".json") {
				w.logger.Info("intervention file detected", zap.String("file", event.Name))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("intervention watcher error", zap.Error(err))
		}
	}
}

// Pending returns the interventions from files not yet consumed, in file
// name order. Unparseable files are skipped with a warning.
func (w *interventionWatcher) Pending() []env.Intervention {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list interventions", zap.Error(err))
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	w.mu.Lock()
	defer w.mu.Unlock()

	var interventions []env.Intervention
	for _, name := range names {
		if w.consumed[name] {
			continue
		}
		w.consumed[name] = true

		path := filepath.Join(w.dir, name)
		blob, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("failed to read intervention file", zap.String("file", path), zap.Error(err))
			continue
		}
		var file interventionFile
		if err := json.Unmarshal(blob, &file); err != nil {
			w.logger.Warn("invalid intervention file", zap.String("file", path), zap.Error(err))
			continue
		}
		for _, entry := range file {
			interventions = append(interventions, env.Intervention{
				AgentID: entry.AgentID,
				Action:  channel.ActionType(entry.Action),
				Args:    entry.Args,
			})
		}
		w.logger.Info("interventions loaded",
			zap.String("file", name),
			zap.Int("count", len(file)))
	}
	return interventions
}

// Close stops the watcher.
func (w *interventionWatcher) Close() error {
	return w.watcher.Close()
}
