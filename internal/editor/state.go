/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the edit state machine of the curve editor: a pure
// reducer from (EditableCurve, Action) to the next EditableCurve, and an
// Editor that owns one curve, serializes dispatches and keeps undo history.
package editor

import "beziered/internal/bezier"

// ModeExtend is the only edit mode; nil EditMode means idle.
const ModeExtend = "extend"

// EditMode marks that pointer input extends the curve at one open end.
type EditMode struct {
	Mode     string          `json:"mode"`
	Polarity bezier.Polarity `json:"polarity"`
}

// EditableCurve is the complete state owned by the reducer.
type EditableCurve struct {
	Points         bezier.Curve   `json:"points"`
	EditMode       *EditMode      `json:"editMode"`
	ProposedVertex *bezier.Vertex `json:"proposedVertex"`
}

// NewEditableCurve returns the initial state for points.
func NewEditableCurve(points bezier.Curve) EditableCurve {
	return EditableCurve{Points: points.Clone()}
}

// State is derived from EditableCurve; it is never stored.
type State int

const (
	Idle State = iota
	ExtendingHover
	ExtendingPlaced
	ExtendingHandle
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExtendingHover:
		return "extending-hover"
	case ExtendingPlaced:
		return "extending-placed"
	case ExtendingHandle:
		return "extending-handle"
	default:
		return "unknown"
	}
}

// State reports the interaction state of c.
func (c EditableCurve) State() State {
	if !c.extending() {
		return Idle
	}
	if c.ProposedVertex == nil {
		return ExtendingHover
	}
	if c.ProposedVertex.Control == nil {
		return ExtendingPlaced
	}
	return ExtendingHandle
}

func (c EditableCurve) extending() bool {
	return c.EditMode != nil && c.EditMode.Mode == ModeExtend
}

// Clone returns a copy that shares nothing mutable with c.
func (c EditableCurve) Clone() EditableCurve {
	out := EditableCurve{Points: c.Points.Clone()}
	if c.EditMode != nil {
		m := *c.EditMode
		out.EditMode = &m
	}
	if c.ProposedVertex != nil {
		v := *c.ProposedVertex
		out.ProposedVertex = &v
	}
	return out
}
