/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := slog.New(h).With("component", "editor", "curve", "wave").WithGroup("drag")

	r := slog.NewRecord(time.Date(2025, 3, 1, 14, 5, 9, 250e6, time.UTC), slog.LevelWarn, "handle clamped", 0)
	r.AddAttrs(
		slog.Float64("len", 4.5),
		slog.String("note", "two words"),
		slog.Group("pt", slog.Int("x", 3), slog.Int("y", -1)),
		slog.Any("err", errors.New("short")),
	)
	if err := l.Handler().Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	want := `14:05:09.250 WRN [editor] handle clamped curve=wave drag.len=4.5 drag.note="two words" drag.pt.x=3 drag.pt.y=-1 drag.err=short` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("line mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestConsoleHandlerLevelAndSource(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	l := slog.New(newConsoleHandler(&buf, &slog.HandlerOptions{Level: lv, AddSource: true}))

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	lv.Set(slog.LevelDebug)
	l.Debug("shown", "ok", true, "took", 1500*time.Millisecond)
	out := buf.String()
	for _, s := range []string{" DBG shown", "ok=true", "took=1.5s", "src=console_test.go:"} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %q in %q", s, out)
		}
	}
}

func TestConsoleHandlerEmptyValuesAndGroups(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, nil)
	// empty group names are ignored, empty values are quoted
	l := slog.New(h.WithGroup("")).With(slog.Group("g"))
	l.Info("x", "name", "", "eq", "a=b")
	if got := buf.String(); !strings.HasSuffix(got, ` INF x name="" eq="a=b"`+"\n") {
		t.Fatalf("output = %q", got)
	}
}
