/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"beziered/internal/bezier"
	applog "beziered/internal/log"
	"beziered/internal/undo"
)

// Recorder receives every applied action together with the state it produced.
// seq increases by one for each state change of the editor.
type Recorder interface {
	Record(curveID string, seq int64, a Action, next EditableCurve) error
}

// Checkpointer is implemented by recorders that also want the full state when
// it changes without an action (undo, redo).
type Checkpointer interface {
	Checkpoint(curveID string, seq int64, state EditableCurve) error
}

// Editor owns one EditableCurve. Dispatch is the only writer; any number of
// goroutines may read snapshots or subscribe to changes.
type Editor struct {
	id  string
	log *slog.Logger

	mu      sync.RWMutex
	state   EditableCurve
	seq     int64
	history *undo.Manager
	rec     Recorder
	now     func() time.Time

	subMu   sync.Mutex
	subs    map[int]func(EditableCurve)
	nextSub int
}

type Option func(*Editor)

// WithID sets the curve id used as history key and in the journal.
func WithID(id string) Option { return func(e *Editor) { e.id = id } }

func WithLogger(l *slog.Logger) Option { return func(e *Editor) { e.log = l } }

// WithHistory enables undo/redo backed by m.
func WithHistory(m *undo.Manager) Option { return func(e *Editor) { e.history = m } }

// WithRecorder journals every applied action.
func WithRecorder(r Recorder) Option { return func(e *Editor) { e.rec = r } }

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option { return func(e *Editor) { e.now = now } }

// WithSeq starts the sequence counter at seq, e.g. after replaying a journal.
func WithSeq(seq int64) Option { return func(e *Editor) { e.seq = seq } }

// New returns an editor for initial, idle.
func New(initial bezier.Curve, opts ...Option) *Editor {
	return NewFromState(NewEditableCurve(initial), opts...)
}

// NewFromState returns an editor that resumes from s.
func NewFromState(s EditableCurve, opts ...Option) *Editor {
	e := &Editor{id: "curve", state: s.Clone(), now: time.Now, subs: make(map[int]func(EditableCurve))}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = applog.WithComponent("editor")
	}
	e.log = applog.WithCurve(e.log, e.id)
	return e
}

func (e *Editor) ID() string { return e.id }

// Seq returns the number of state changes so far.
func (e *Editor) Seq() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seq
}

// Snapshot returns a copy of the current state.
func (e *Editor) Snapshot() EditableCurve {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Dispatch applies a and returns the resulting state. Actions that do not fit
// the current state leave it unchanged.
func (e *Editor) Dispatch(a Action) EditableCurve {
	e.mu.Lock()
	next, applied := reduce(e.state, a)
	if !applied {
		out := e.state.Clone()
		e.mu.Unlock()
		e.log.Debug("action ignored", slog.String("action", a.String()), slog.String("state", out.State().String()))
		return out
	}
	if e.history != nil && mutatesPoints(a.Type) {
		e.pushHistoryLocked()
	}
	e.state = next
	e.seq++
	if e.rec != nil {
		if err := e.rec.Record(e.id, e.seq, a, next); err != nil {
			e.log.Warn("record action failed", slog.Int64("seq", e.seq), slog.Any("err", err))
		}
	}
	out := next.Clone()
	e.mu.Unlock()

	e.log.Debug("dispatch", slog.String("action", a.String()), slog.String("state", out.State().String()), slog.Int("points", len(out.Points)))
	e.notify(out)
	return out
}

func (e *Editor) pushHistoryLocked() {
	blob, err := json.Marshal(e.state)
	if err != nil {
		e.log.Warn("history snapshot failed", slog.Any("err", err))
		return
	}
	e.history.Push(e.id, undo.Snapshot{Blob: blob, TS: e.now()})
}

// Undo restores the state before the last change. It reports false when
// there is no history.
func (e *Editor) Undo() (EditableCurve, bool) {
	return e.travel("undo", func(cur undo.Snapshot) (undo.Snapshot, bool) { return e.history.Undo(e.id, cur) })
}

// Redo reapplies the last undone change.
func (e *Editor) Redo() (EditableCurve, bool) {
	return e.travel("redo", func(cur undo.Snapshot) (undo.Snapshot, bool) { return e.history.Redo(e.id, cur) })
}

func (e *Editor) travel(op string, step func(undo.Snapshot) (undo.Snapshot, bool)) (EditableCurve, bool) {
	l := applog.WithOperation(e.log, op)
	e.mu.Lock()
	if e.history == nil {
		out := e.state.Clone()
		e.mu.Unlock()
		return out, false
	}
	blob, err := json.Marshal(e.state)
	if err != nil {
		out := e.state.Clone()
		e.mu.Unlock()
		l.Warn("snapshot current state failed", slog.Any("err", err))
		return out, false
	}
	s, ok := step(undo.Snapshot{Blob: blob, TS: e.now()})
	if !ok {
		out := e.state.Clone()
		e.mu.Unlock()
		return out, false
	}
	var restored EditableCurve
	if err := json.Unmarshal(s.Blob, &restored); err != nil {
		out := e.state.Clone()
		e.mu.Unlock()
		l.Error("restore snapshot failed", slog.Any("err", err))
		return out, false
	}
	e.state = restored
	e.seq++
	if cp, ok := e.rec.(Checkpointer); ok {
		if err := cp.Checkpoint(e.id, e.seq, restored); err != nil {
			l.Warn("checkpoint failed", slog.Int64("seq", e.seq), slog.Any("err", err))
		}
	}
	out := restored.Clone()
	e.mu.Unlock()

	l.Debug("restored", slog.Int("points", len(out.Points)))
	e.notify(out)
	return out, true
}

// Apply runs one script step: undo and redo go to the history, anything
// else is dispatched.
func (e *Editor) Apply(a Action) EditableCurve {
	switch a.Type {
	case ActUndo:
		s, _ := e.Undo()
		return s
	case ActRedo:
		s, _ := e.Redo()
		return s
	}
	return e.Dispatch(a)
}

// Subscribe registers fn to be called with every new state. Calls happen
// after the state is committed, outside the editor lock, in dispatch order
// for a single dispatching goroutine.
func (e *Editor) Subscribe(fn func(EditableCurve)) (cancel func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
		})
	}
}

func (e *Editor) notify(s EditableCurve) {
	e.subMu.Lock()
	fns := make([]func(EditableCurve), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	for _, fn := range fns {
		fn(s.Clone())
	}
}
