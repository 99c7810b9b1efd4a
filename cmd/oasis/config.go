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
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tunglinwood/oasis/pkg/embeddings"
	"github.com/tunglinwood/oasis/pkg/llm"
	"github.com/tunglinwood/oasis/pkg/llm/anthropic"
	"github.com/tunglinwood/oasis/pkg/llm/ollama"
	"github.com/tunglinwood/oasis/pkg/platform"
	"github.com/tunglinwood/oasis/pkg/recsys"
)

// Config is the resolved simulation configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Inference  InferenceConfig  `mapstructure:"inference"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds the platform and driver options.
type SimulationConfig struct {
	DBPath              string  `mapstructure:"db_path"`
	ProfilePath         string  `mapstructure:"profile_path"`
	NumTimesteps        int     `mapstructure:"num_timesteps"`
	ClockFactor         float64 `mapstructure:"clock_factor"`
	RecsysType          string  `mapstructure:"recsys_type"`
	MaxRecPostLen       int     `mapstructure:"max_rec_post_len"`
	RefreshRecPostCount int     `mapstructure:"refresh_rec_post_count"`
	FollowingPostCount  int     `mapstructure:"following_post_count"`
	AllowSelfRating     bool    `mapstructure:"allow_self_rating"`
	ShowScore           bool    `mapstructure:"show_score"`
	TrendNumDays        int     `mapstructure:"trend_num_days"`
	TrendTopK           int     `mapstructure:"trend_top_k"`
	ReportThreshold     int     `mapstructure:"report_threshold"`
	Semaphore           int     `mapstructure:"semaphore"`
	InterventionsDir    string  `mapstructure:"interventions_dir"`
}

// InferenceConfig selects and tunes the LLM provider.
type InferenceConfig struct {
	Provider        string  `mapstructure:"provider"`
	Model           string  `mapstructure:"model"`
	Endpoint        string  `mapstructure:"endpoint"`
	Temperature     float64 `mapstructure:"temperature"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
}

// EmbeddingConfig tunes the embedding backend.
type EmbeddingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// LoggingConfig tunes the zap logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// loadConfig decodes viper state into a Config.
func loadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// buildLogger creates the production logger at the configured level.
func buildLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapConfig.Level = level
	}
	return zapConfig.Build()
}

// buildProvider constructs the configured LLM provider.
func buildProvider(cfg InferenceConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		apiKey := cfg.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			Endpoint:    cfg.Endpoint,
			Temperature: cfg.Temperature,
			RateLimiterConfig: llm.RateLimiterConfig{
				Enabled: true,
			},
		}), nil
	case "ollama":
		return ollama.NewClient(ollama.Config{
			Endpoint:    cfg.Endpoint,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}), nil
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
}

// platformConfig translates simulation options to the platform's config.
func platformConfig(sim SimulationConfig, recsysType recsys.Type) platform.Config {
	return platform.Config{
		RecsysType:          recsysType,
		RefreshRecPostCount: sim.RefreshRecPostCount,
		MaxRecPostLen:       sim.MaxRecPostLen,
		FollowingPostCount:  sim.FollowingPostCount,
		AllowSelfRating:     sim.AllowSelfRating,
		ShowScore:           sim.ShowScore,
		TrendNumDays:        sim.TrendNumDays,
		TrendTopK:           sim.TrendTopK,
		ReportThreshold:     sim.ReportThreshold,
	}
}

// buildEngine constructs the recommendation engine, attaching the embedding
// backend when the strategy needs one.
func buildEngine(sim SimulationConfig, emb EmbeddingConfig, logger *zap.Logger) (recsys.Engine, recsys.Type, error) {
	recsysType, err := recsys.ParseType(sim.RecsysType)
	if err != nil {
		return nil, "", err
	}

	var embedder embeddings.Embedder
	if recsysType == recsys.TypeTwhin || recsysType == recsys.TypeTwitter {
		embedder = embeddings.NewClient(embeddings.Config{
			Endpoint: emb.Endpoint,
			Model:    emb.Model,
		})
	}

	engine, err := recsys.New(recsys.Config{
		Type:          recsysType,
		MaxRecPostLen: sim.MaxRecPostLen,
		Embedder:      embedder,
		Logger:        logger,
	})
	if err != nil {
		return nil, "", err
	}
	return engine, recsysType, nil
}
