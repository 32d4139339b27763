/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"beziered/internal/bezier"
	"beziered/internal/editor"
)

// TestPostgresJournal runs against a real database when BZE_PG_DSN (or
// DATABASE_URL) points at one.
func TestPostgresJournal(t *testing.T) {
	dsn := os.Getenv("BZE_PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("BZE_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	j, err := OpenJournal(ctx, "", JournalConfig{Driver: DriverPostgres, DSN: dsn})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer func() { _ = j.Close() }()

	curve := fmt.Sprintf("pgtest-%d", time.Now().UnixNano())
	defer func() { _ = j.Reset(context.Background(), curve) }()

	rec := NewRecorder(ctx, j)
	rec.SnapshotEvery = 2
	base := bezier.Curve{bezier.V(0, 0), bezier.V(100, 0)}
	state := editor.NewEditableCurve(base)
	for i, a := range []editor.Action{
		editor.EnterExtendMode(bezier.Before),
		editor.LayerMove(-50, 0),
		editor.LayerDragStop(-80, 20),
	} {
		state = editor.Reduce(state, a)
		if err := rec.Record(curve, int64(i+1), a, state); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	got, seq, err := j.Replay(ctx, curve, base)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if seq != 3 || len(got.Points) != 3 {
		t.Fatalf("replay = seq %d, %d points", seq, len(got.Points))
	}
	if n, err := j.PruneSnapshots(ctx, curve, 1); err != nil || n != 0 {
		t.Fatalf("prune = %d, %v", n, err)
	}
}
