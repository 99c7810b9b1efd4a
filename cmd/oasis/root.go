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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tunglinwood/oasis/internal/version"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "oasis",
	Short:   "OASIS - generative-agent social simulation engine",
	Long:    `OASIS simulates a social-media platform populated by large numbers of LLM-driven agents, reproducing macro-level dynamics like cascades, recommendation-driven reach and misinformation spread under controlled interventions.`,
	Version: version.Get(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	// Simulation flags
	rootCmd.PersistentFlags().String("db", ":memory:", "path of the simulation database")
	rootCmd.PersistentFlags().String("profiles", "", "profile file (CSV for twitter mode, JSON for reddit mode)")
	rootCmd.PersistentFlags().Int("timesteps", 3, "number of timesteps to run")
	rootCmd.PersistentFlags().String("recsys", "", "recommender strategy (random, twitter, twhin, reddit)")
	rootCmd.PersistentFlags().Int("max-rec-post-len", 50, "rec rows per user")
	rootCmd.PersistentFlags().Int("refresh-rec-post-count", 5, "posts drawn from the rec pool per refresh")
	rootCmd.PersistentFlags().Int("following-post-count", 3, "top-liked followee posts added per refresh")
	rootCmd.PersistentFlags().Bool("allow-self-rating", false, "permit rating one's own posts and comments")
	rootCmd.PersistentFlags().Bool("show-score", false, "display likes-dislikes as a single score")
	rootCmd.PersistentFlags().Int("trend-num-days", 7, "trend window in virtual days")
	rootCmd.PersistentFlags().Int("trend-top-k", 10, "trend result size")
	rootCmd.PersistentFlags().Int("semaphore", 128, "max concurrent agent LLM calls")
	rootCmd.PersistentFlags().String("interventions-dir", "", "directory watched for scripted intervention files")

	// Inference flags
	rootCmd.PersistentFlags().String("llm-provider", "anthropic", "LLM provider (anthropic, ollama)")
	rootCmd.PersistentFlags().String("llm-model", "", "model identifier")
	rootCmd.PersistentFlags().String("llm-endpoint", "", "provider endpoint override")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or ANTHROPIC_API_KEY)")
	rootCmd.PersistentFlags().String("embedding-endpoint", "", "embedding backend endpoint")
	rootCmd.PersistentFlags().String("embedding-model", "", "embedding model")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("simulation.db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("simulation.profile_path", rootCmd.PersistentFlags().Lookup("profiles"))
	_ = viper.BindPFlag("simulation.num_timesteps", rootCmd.PersistentFlags().Lookup("timesteps"))
	_ = viper.BindPFlag("simulation.recsys_type", rootCmd.PersistentFlags().Lookup("recsys"))
	_ = viper.BindPFlag("simulation.max_rec_post_len", rootCmd.PersistentFlags().Lookup("max-rec-post-len"))
	_ = viper.BindPFlag("simulation.refresh_rec_post_count", rootCmd.PersistentFlags().Lookup("refresh-rec-post-count"))
	_ = viper.BindPFlag("simulation.following_post_count", rootCmd.PersistentFlags().Lookup("following-post-count"))
	_ = viper.BindPFlag("simulation.allow_self_rating", rootCmd.PersistentFlags().Lookup("allow-self-rating"))
	_ = viper.BindPFlag("simulation.show_score", rootCmd.PersistentFlags().Lookup("show-score"))
	_ = viper.BindPFlag("simulation.trend_num_days", rootCmd.PersistentFlags().Lookup("trend-num-days"))
	_ = viper.BindPFlag("simulation.trend_top_k", rootCmd.PersistentFlags().Lookup("trend-top-k"))
	_ = viper.BindPFlag("simulation.semaphore", rootCmd.PersistentFlags().Lookup("semaphore"))
	_ = viper.BindPFlag("simulation.interventions_dir", rootCmd.PersistentFlags().Lookup("interventions-dir"))

	_ = viper.BindPFlag("inference.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("inference.model", rootCmd.PersistentFlags().Lookup("llm-model"))
	_ = viper.BindPFlag("inference.endpoint", rootCmd.PersistentFlags().Lookup("llm-endpoint"))
	_ = viper.BindPFlag("inference.anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = viper.BindPFlag("embedding.endpoint", rootCmd.PersistentFlags().Lookup("embedding-endpoint"))
	_ = viper.BindPFlag("embedding.model", rootCmd.PersistentFlags().Lookup("embedding-model"))

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in the config file and matching environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oasis")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("OASIS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
