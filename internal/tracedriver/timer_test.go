/*
 * Copyright (C) 2025 rpmtrace contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package tracedriver

import (
	"bytes"
	"time"

	. "gopkg.in/check.v1"
)

type timerSuite struct{}

var _ = Suite(&timerSuite{})

func (s *timerSuite) TestWriteSummary(c *C) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	ticks := []time.Duration{0, 2 * time.Second, 5 * time.Second}

	timer := &Timer{now: func() time.Time {
		t := base.Add(ticks[tick])
		tick++
		return t
	}}
	timer.Mark("start")
	timer.Mark("loaded")
	timer.Mark("done")

	var buf bytes.Buffer
	timer.WriteSummary(&buf)

	out := buf.String()
	c.Check(out, Matches, "(?s)SUMMARY\n.*loaded.*2s.*\n.*done.*3s.*\n.*total.*5s.*")
}

func (s *timerSuite) TestWriteSummarySingleMark(c *C) {
	timer := NewTimer()
	var buf bytes.Buffer
	timer.WriteSummary(&buf)
	c.Check(buf.String(), Equals, "SUMMARY\n")
}
