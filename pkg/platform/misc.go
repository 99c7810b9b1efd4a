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

// do_nothing still commits a trace row: agents that deliberately sit a step
// out remain visible to the analysis pipeline.

func (p *Platform) handleDoNothing(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	return success(nil), map[string]any{}, nil
}

// handleInterview records an interview exchange as a single trace row. The
// driver runs the one-shot completion first and sends prompt and response
// together; a bare string prompt is accepted for not-yet-answered records.
func (p *Platform) handleInterview(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	var record InterviewPayload
	switch v := payload.(type) {
	case InterviewPayload:
		record = v
	case string:
		record = InterviewPayload{Prompt: v}
	default:
		return nil, nil, fmt.Errorf("interview: malformed payload %T", payload)
	}

	trace := map[string]any{"prompt": record.Prompt, "response": record.Response}
	return success(nil), trace, nil
}
