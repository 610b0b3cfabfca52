// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"errors"
	"time"
)

// SleepTool waits for a number of seconds, letting the agent pause for
// data arrival or rate limits. Cancellation of the step context cuts
// the wait short and reports a failure.
type SleepTool struct{}

// NewSleepTool creates the sleep tool.
func NewSleepTool() *SleepTool { return &SleepTool{} }

// Name implements Tool.
func (t *SleepTool) Name() string { return "sleep" }

// Description implements Tool.
func (t *SleepTool) Description() string {
	return "Sleep for N seconds to wait for data or rate limits."
}

// Schema implements Tool.
func (t *SleepTool) Schema() map[string]string {
	return map[string]string{"seconds": "float"}
}

// Execute implements Tool.
func (t *SleepTool) Execute(ctx context.Context, input map[string]any) Result {
	seconds, ok := input["seconds"].(float64)
	if !ok || seconds < 0 {
		return Fail(errors.New("sleep: 'seconds' must be a non-negative number"))
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return Ok(map[string]any{"slept": seconds})
	case <-ctx.Done():
		return Fail(ctx.Err())
	}
}
