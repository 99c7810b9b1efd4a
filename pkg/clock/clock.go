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

// Package clock provides the virtual time sources used by the simulation.
// Every timestamp persisted by the platform comes from a Clock, never from
// the wall clock directly.
package clock

import (
	"strconv"
	"sync/atomic"
	"time"
)

// TimeFormat is the layout scaled clocks render timestamps with. The
// Reddit-style hot score parser consumes exactly this layout.
const TimeFormat = "2006-01-02 15:04:05.000000"

// Clock is a virtual time source. Now returns an opaque timestamp string
// that is stored verbatim in created_at columns.
type Clock interface {
	Now() string
}

// TickClock counts integer timesteps. Now returns the current step as a
// decimal string; the environment driver advances it once per step.
// Safe for concurrent readers while the driver advances between steps.
type TickClock struct {
	step atomic.Int64
}

// NewTickClock creates a tick clock starting at step 0.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Now returns the current timestep as a string.
func (c *TickClock) Now() string {
	return strconv.FormatInt(c.step.Load(), 10)
}

// Current returns the current timestep.
func (c *TickClock) Current() int64 {
	return c.step.Load()
}

// Advance moves the clock forward one timestep and returns the new value.
func (c *TickClock) Advance() int64 {
	return c.step.Add(1)
}

// ScaledClock maps real elapsed time onto simulated time: a simulation that
// starts at start runs k times faster than the wall clock.
type ScaledClock struct {
	start     time.Time
	realStart time.Time
	k         float64
	now       func() time.Time
}

// NewScaledClock creates a scaled clock anchored at start with factor k.
// k must be positive; a factor of 60 means one real second is one simulated
// minute.
func NewScaledClock(start time.Time, k float64) *ScaledClock {
	return &ScaledClock{
		start:     start,
		realStart: time.Now(),
		k:         k,
		now:       time.Now,
	}
}

// Now returns the simulated datetime as a string in TimeFormat.
func (c *ScaledClock) Now() string {
	return c.Time().Format(TimeFormat)
}

// Time returns the simulated datetime.
func (c *ScaledClock) Time() time.Time {
	elapsed := c.now().Sub(c.realStart)
	scaled := time.Duration(float64(elapsed) * c.k)
	return c.start.Add(scaled)
}

var (
	_ Clock = (*TickClock)(nil)
	_ Clock = (*ScaledClock)(nil)
)
