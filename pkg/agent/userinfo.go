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
	"fmt"
	"strings"
)

// UserInfo is an agent's static persona: the identity it signs up with and
// the self-description fed to the model every turn.
type UserInfo struct {
	UserName    string
	Name        string
	Description string
	// Profile carries structured persona attributes (persona text, mbti,
	// gender, age, country). An empty persona is omitted from the prompt;
	// the demographic sentence appears when MBTI or age is set and then
	// prints gender and country even if they are empty.
	Profile Profile
	// IsControllable marks agents driven by scripted interventions rather
	// than the model.
	IsControllable bool
}

// Profile holds optional structured persona attributes.
type Profile struct {
	Persona string
	MBTI    string
	Gender  string
	Age     string
	Country string
}

// ToSystemMessage renders the persona into the model's system prompt.
// actionPrompt overrides the default objective text when non-empty.
func (u UserInfo) ToSystemMessage(actionPrompt string) string {
	objective := actionPrompt
	if objective == "" {
		objective = "You're a social media user on a simulated platform. " +
			"I'll present you with your current feed and group messages. " +
			"After observing them, choose the platform actions that fit how " +
			"you would genuinely react, using the available tools. You may " +
			"take several actions, or none."
	}

	var description []string
	if u.Name != "" {
		description = append(description, fmt.Sprintf("Your name is %s.", u.Name))
	}
	if u.Description != "" {
		description = append(description, u.Description)
	}
	if u.Profile.Persona != "" {
		description = append(description, fmt.Sprintf("Your have profile: %s.", u.Profile.Persona))
	}
	if u.Profile.MBTI != "" || u.Profile.Age != "" {
		description = append(description, fmt.Sprintf(
			"You are a %s, %s years old, with an MBTI personality type of %s from %s.",
			u.Profile.Gender, u.Profile.Age, u.Profile.MBTI, u.Profile.Country))
	}

	return fmt.Sprintf(`# OBJECTIVE
%s

# SELF-DESCRIPTION
Your actions should be consistent with your self-description and personality.

%s`, objective, strings.Join(description, "\n"))
}
