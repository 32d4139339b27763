/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "beziered/internal/bezier"

// Reduce returns the state that follows prev after a. It never mutates prev.
// Actions that do not fit the current state are ignored and prev is returned.
func Reduce(prev EditableCurve, a Action) EditableCurve {
	next, _ := reduce(prev, a)
	return next
}

// reduce is Reduce that also reports whether the action was applied.
func reduce(s EditableCurve, a Action) (EditableCurve, bool) {
	switch a.Type {
	case ActDragVertex:
		return dragVertex(s, a.Index, bezier.Point{X: a.X, Y: a.Y})
	case ActDragHandle:
		return dragHandleAt(s, a.Index, a.Polarity, bezier.Point{X: a.X, Y: a.Y})
	case ActEnterExtendMode:
		return enterExtendMode(s, a.Polarity)
	case ActExitExtendMode:
		return exitExtendMode(s)
	case ActLayerMove:
		return layerMove(s, bezier.Point{X: a.X, Y: a.Y})
	case ActLayerDrag:
		return layerDrag(s, bezier.Point{X: a.X, Y: a.Y})
	case ActLayerDragStop:
		return layerDragStop(s, bezier.Point{X: a.X, Y: a.Y})
	default:
		return s, false
	}
}

// mutatesPoints reports whether an applied action of type t can change the
// committed vertices (and is therefore worth an undo step).
func mutatesPoints(t ActionType) bool {
	switch t {
	case ActDragVertex, ActDragHandle, ActLayerDragStop:
		return true
	}
	return false
}

func dragVertex(s EditableCurve, i int, pos bezier.Point) (EditableCurve, bool) {
	if i < 0 || i >= len(s.Points) {
		return s, false
	}
	pts := s.Points.Clone()
	// handles are relative to the vertex, so they travel with it unchanged
	pts[i].X, pts[i].Y = pos.X, pos.Y
	s.Points = pts
	return s, true
}

func dragHandleAt(s EditableCurve, i int, p bezier.Polarity, pos bezier.Point) (EditableCurve, bool) {
	if i < 0 || i >= len(s.Points) || !p.Valid() {
		return s, false
	}
	pts := s.Points.Clone()
	pts[i] = MoveHandle(pts[i], p, pos)
	s.Points = pts
	return s, true
}

func enterExtendMode(s EditableCurve, p bezier.Polarity) (EditableCurve, bool) {
	if s.State() != Idle || !p.Valid() {
		return s, false
	}
	s.EditMode = &EditMode{Mode: ModeExtend, Polarity: p}
	s.ProposedVertex = nil
	return s, true
}

func exitExtendMode(s EditableCurve) (EditableCurve, bool) {
	if s.EditMode == nil {
		return s, false
	}
	s.EditMode = nil
	s.ProposedVertex = nil
	return s, true
}
