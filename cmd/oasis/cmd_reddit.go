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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var redditCmd = &cobra.Command{
	Use:   "reddit",
	Short: "Run a Reddit-style simulation (scaled clock, JSON profiles, hot-score feeds)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("simulation.recsys_type") == "" {
			viper.Set("simulation.recsys_type", "reddit")
		}
		return runSimulation(modeReddit)
	},
}

func init() {
	rootCmd.AddCommand(redditCmd)
}
