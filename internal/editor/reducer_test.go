/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"math"
	"testing"

	"beziered/internal/bezier"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func apply(s EditableCurve, actions ...Action) EditableCurve {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func line() EditableCurve {
	return NewEditableCurve(bezier.Curve{bezier.V(0, 0), bezier.V(100, 0)})
}

func smoothAt(x, y, angle, l, l1 float64) bezier.Vertex {
	return bezier.Vertex{X: x, Y: y, Control: bezier.Smooth(angle, l, l1)}
}

func TestDerivedStates(t *testing.T) {
	s := line()
	steps := []struct {
		a    Action
		want State
	}{
		{EnterExtendMode(bezier.After), ExtendingHover},
		{LayerMove(150, 50), ExtendingPlaced},
		{LayerMove(160, 40), ExtendingPlaced},
		{LayerDrag(180, 40), ExtendingHandle},
		{LayerDragStop(180, 40), ExtendingHover},
		{ExitExtendMode(), Idle},
	}
	if s.State() != Idle {
		t.Fatalf("initial state = %v, want idle", s.State())
	}
	for _, st := range steps {
		s = Reduce(s, st.a)
		if got := s.State(); got != st.want {
			t.Fatalf("after %v: state = %v, want %v", st.a, got, st.want)
		}
	}
}

func TestDragVertexKeepsControls(t *testing.T) {
	s := NewEditableCurve(bezier.Curve{
		smoothAt(0, 0, 30, 10, 20),
		{X: 50, Y: 50, Control: bezier.Corner(bezier.ControlPoint{Angle: 10, Length: 3}, bezier.ControlPoint{Angle: 200, Length: 4})},
		bezier.V(100, 0),
	})
	for i := range s.Points {
		next := Reduce(s, DragVertex(i, 10, 20))
		for j := range s.Points {
			if diff := cmp.Diff(s.Points[j].Control, next.Points[j].Control); diff != "" {
				t.Fatalf("drag-vertex(%d) changed control of %d:\n%s", i, j, diff)
			}
			if j != i && next.Points[j].Pos() != s.Points[j].Pos() {
				t.Fatalf("drag-vertex(%d) moved vertex %d", i, j)
			}
		}
		if got := next.Points[i].Pos(); got != (bezier.Point{X: 10, Y: 20}) {
			t.Fatalf("drag-vertex(%d) moved to %+v", i, got)
		}
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewEditableCurve(bezier.Curve{smoothAt(0, 0, 30, 10, 10), bezier.V(100, 0)})
	before := s.Clone()
	_ = Reduce(s, DragVertex(1, 7, 7))
	_ = Reduce(s, DragHandle(0, bezier.After, 0, 40))
	ext := apply(s, EnterExtendMode(bezier.Before), LayerMove(-50, 0))
	if diff := cmp.Diff(before, s); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
	snap := ext.Clone()
	_ = Reduce(ext, LayerDrag(-80, 10))
	_ = Reduce(ext, LayerDragStop(-80, 10))
	if diff := cmp.Diff(snap, ext); diff != "" {
		t.Fatalf("extending state mutated (-before +after):\n%s", diff)
	}
}

func TestPreconditionMismatchIsNoop(t *testing.T) {
	idle := line()
	hover := Reduce(idle, EnterExtendMode(bezier.After))
	handle := apply(hover, LayerMove(150, 50), LayerDrag(170, 50))

	cases := []struct {
		desc string
		s    EditableCurve
		a    Action
	}{
		{"layer-move while idle", idle, LayerMove(1, 1)},
		{"layer-drag while idle", idle, LayerDrag(1, 1)},
		{"layer-drag-stop while idle", idle, LayerDragStop(1, 1)},
		{"layer-drag without proposal", hover, LayerDrag(1, 1)},
		{"layer-drag-stop without proposal", hover, LayerDragStop(1, 1)},
		{"layer-move with live handle", handle, LayerMove(1, 1)},
		{"enter-extend while extending", hover, EnterExtendMode(bezier.Before)},
		{"enter-extend with bad polarity", idle, EnterExtendMode(0)},
		{"exit-extend while idle", idle, ExitExtendMode()},
		{"drag-vertex out of range", idle, DragVertex(2, 1, 1)},
		{"drag-vertex negative index", idle, DragVertex(-1, 1, 1)},
		{"drag-handle out of range", idle, DragHandle(5, bezier.After, 1, 1)},
		{"drag-handle bad polarity", idle, DragHandle(0, 0, 1, 1)},
		{"unknown action", idle, Action{Type: "rotate"}},
	}
	for _, c := range cases {
		next, applied := reduce(c.s, c.a)
		if applied {
			t.Errorf("%s: reported as applied", c.desc)
		}
		if diff := cmp.Diff(c.s, next); diff != "" {
			t.Errorf("%s: state changed:\n%s", c.desc, diff)
		}
	}
}

func TestDragHandleWithinThresholdKeepsAngle(t *testing.T) {
	s := NewEditableCurve(bezier.Curve{smoothAt(0, 0, 30, 10, 10), bezier.V(100, 0)})
	next := Reduce(s, DragHandle(0, bezier.Before, 1, 1))
	got := next.Points[0].Control.(bezier.SmoothControl)
	if got.Angle != 30 {
		t.Fatalf("angle = %v, want 30", got.Angle)
	}
	if !near(*got.Length, math.Sqrt2) || *got.Length1 != 10 {
		t.Fatalf("lengths = %v/%v, want %v/10", *got.Length, *got.Length1, math.Sqrt2)
	}
}

func TestDragHandleThresholdBoundary(t *testing.T) {
	v := smoothAt(0, 0, 30, 10, 10)

	// exactly 5 is not above the threshold
	at := MoveHandle(v, bezier.Before, bezier.Point{X: 3, Y: 4}).Control.(bezier.SmoothControl)
	if at.Angle != 30 || *at.Length != 5 {
		t.Fatalf("at threshold: %+v length=%v, want angle 30 length 5", at, *at.Length)
	}

	above := MoveHandle(v, bezier.Before, bezier.Point{X: 5.001, Y: 0}).Control.(bezier.SmoothControl)
	if !near(above.Angle, -180) || !near(*above.Length, 5.001) {
		t.Fatalf("above threshold: angle=%v length=%v, want -180/5.001", above.Angle, *above.Length)
	}
}

func TestDragHandleArmFollowsPointer(t *testing.T) {
	for _, p := range []bezier.Polarity{bezier.Before, bezier.After} {
		for _, target := range []bezier.Point{{X: 40, Y: 0}, {X: 0, Y: 30}, {X: -20, Y: -20}, {X: 12, Y: -35}} {
			v := bezier.Vertex{X: 10, Y: 10, Control: bezier.Smooth(45, 7, 9)}
			pos := bezier.Point{X: v.X + target.X, Y: v.Y + target.Y}
			moved := MoveHandle(v, p, pos)
			var arm *bezier.Handle
			for _, h := range bezier.Handles(moved) {
				if h.Polarity == p {
					h := h
					arm = &h
				}
			}
			if arm == nil {
				t.Fatalf("%v arm missing after drag", p)
			}
			if diff := cmp.Diff(pos, arm.Pos, approx); diff != "" {
				t.Errorf("%v arm dragged to %+v (-want +got):\n%s", p, pos, diff)
			}
		}
	}
}

func TestDragHandleAfterStoresComplementaryAngle(t *testing.T) {
	v := bezier.Vertex{X: 0, Y: 0}
	got := MoveHandle(v, bezier.After, bezier.Point{X: 0, Y: 10}).Control.(bezier.SmoothControl)
	if !near(got.Angle, 90) || got.Length != nil || *got.Length1 != 10 {
		t.Fatalf("after drag on bare vertex = %+v, want angle 90 length1 10 only", got)
	}
	// the before arm shares the angle and mirrors the after arm
	got = MoveHandle(bezier.Vertex{Control: got}, bezier.Before, bezier.Point{X: 0, Y: -4}).Control.(bezier.SmoothControl)
	if !near(got.Angle, 90) || *got.Length != 4 || *got.Length1 != 10 {
		t.Fatalf("short before drag = angle %v lengths %v/%v", got.Angle, *got.Length, *got.Length1)
	}
}

func TestDragHandleCornerIsIndependent(t *testing.T) {
	before := bezier.ControlPoint{Angle: 180, Length: 10}
	v := bezier.Vertex{X: 0, Y: 0, Control: bezier.Corner(before, bezier.ControlPoint{Angle: 45, Length: 10})}

	moved := MoveHandle(v, bezier.After, bezier.Point{X: 0, Y: 20})
	c, ok := moved.Control.(bezier.CornerControl)
	if !ok {
		t.Fatalf("corner vertex became %T", moved.Control)
	}
	if diff := cmp.Diff(&before, c.Before); diff != "" {
		t.Fatalf("before arm changed:\n%s", diff)
	}
	if diff := cmp.Diff(&bezier.ControlPoint{Angle: 90, Length: 20}, c.After, approx); diff != "" {
		t.Fatalf("after arm mismatch:\n%s", diff)
	}

	small := MoveHandle(v, bezier.After, bezier.Point{X: 1, Y: 1}).Control.(bezier.CornerControl)
	if small.After.Angle != 45 || !near(small.After.Length, math.Sqrt2) {
		t.Fatalf("short corner drag = %+v, want angle 45 length sqrt2", *small.After)
	}
}

func TestCreateControlPointIsSymmetric(t *testing.T) {
	v := bezier.V(100, 100)
	got := CreateControlPoint(v, bezier.Point{X: 100, Y: 160}, bezier.After)
	if !near(got.Angle, -90) || *got.Length != 60 || *got.Length1 != 60 {
		t.Fatalf("CreateControlPoint = angle %v lengths %v/%v", got.Angle, *got.Length, *got.Length1)
	}
	short := CreateControlPoint(v, bezier.Point{X: 102, Y: 100}, bezier.Before)
	if short.Angle != 0 || *short.Length != 2 || *short.Length1 != 2 {
		t.Fatalf("short CreateControlPoint = angle %v lengths %v/%v", short.Angle, *short.Length, *short.Length1)
	}
}

func TestLayerDragIsIdempotent(t *testing.T) {
	s := apply(line(), EnterExtendMode(bezier.After), LayerMove(150, 50))
	once := Reduce(s, LayerDrag(190, 80))
	twice := Reduce(once, LayerDrag(190, 80))
	if diff := cmp.Diff(once.ProposedVertex, twice.ProposedVertex); diff != "" {
		t.Fatalf("repeated layer-drag changed the proposal:\n%s", diff)
	}
	if once.ProposedVertex.Pos() != (bezier.Point{X: 150, Y: 50}) {
		t.Fatalf("layer-drag moved the proposed vertex to %+v", once.ProposedVertex.Pos())
	}
}

func TestExtendAfterScenario(t *testing.T) {
	s := apply(line(), EnterExtendMode(bezier.After), LayerMove(150, 50), LayerDragStop(150, 50))
	if len(s.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(s.Points))
	}
	if got := s.Points[2].Pos(); got != (bezier.Point{X: 150, Y: 50}) {
		t.Fatalf("new vertex at %+v, want (150,50)", got)
	}
	join, ok := s.Points[1].Control.(bezier.SmoothControl)
	if !ok || join.Length == nil || join.Length1 == nil || *join.Length != *join.Length1 {
		t.Fatalf("old endpoint not equalized: %#v", s.Points[1].Control)
	}
	want := &EditMode{Mode: ModeExtend, Polarity: bezier.After}
	if diff := cmp.Diff(want, s.EditMode); diff != "" {
		t.Fatalf("edit mode after commit:\n%s", diff)
	}
	if s.ProposedVertex != nil {
		t.Fatalf("proposed vertex not cleared")
	}
}

func TestExtendAfterWithHandle(t *testing.T) {
	s := apply(line(), EnterExtendMode(bezier.After), LayerMove(150, 0), LayerDrag(180, 0), LayerDragStop(200, 0))
	want := bezier.Curve{
		bezier.V(0, 0),
		smoothAt(100, 0, 0, 0, 0),
		smoothAt(150, 0, 0, 50, 50),
	}
	if diff := cmp.Diff(want, s.Points, approx); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
	// the inward arm of the new vertex points back along the new segment
	for _, h := range bezier.Handles(s.Points[2]) {
		if h.Polarity == bezier.Before && !near(h.Pos.X, 100) {
			t.Fatalf("before arm of new vertex at %+v, want x=100", h.Pos)
		}
	}
}

func TestExtendBeforePrepends(t *testing.T) {
	start := NewEditableCurve(bezier.Curve{
		{X: 0, Y: 0, Control: bezier.SmoothControl{Angle: 0, Length1: bezier.Float(30)}},
		bezier.V(100, 0),
	})
	s := apply(start, EnterExtendMode(bezier.Before), LayerMove(-50, 0), LayerDragStop(-100, 0))
	want := bezier.Curve{
		smoothAt(-50, 0, 180, 50, 50),
		smoothAt(0, 0, 0, 30, 30),
		bezier.V(100, 0),
	}
	if diff := cmp.Diff(want, s.Points, approx); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendChainsWithoutLeavingMode(t *testing.T) {
	s := apply(line(),
		EnterExtendMode(bezier.After),
		LayerMove(150, 0), LayerDragStop(150, 0),
		LayerMove(200, 0), LayerDragStop(200, 0),
	)
	if len(s.Points) != 4 || s.State() != ExtendingHover {
		t.Fatalf("got %d points in state %v, want 4 in extending-hover", len(s.Points), s.State())
	}
}

func TestExtendEmptyCurve(t *testing.T) {
	s := apply(NewEditableCurve(nil), EnterExtendMode(bezier.After), LayerMove(5, 5), LayerDragStop(5, 5))
	if len(s.Points) != 1 || s.Points[0].Pos() != (bezier.Point{X: 5, Y: 5}) {
		t.Fatalf("points = %+v, want a single vertex at (5,5)", s.Points)
	}
}

func TestEqualizeCornerEndpoint(t *testing.T) {
	v := bezier.Vertex{Control: bezier.CornerControl{Before: &bezier.ControlPoint{Angle: 30, Length: 8}}}
	got := equalizeJoin(v, bezier.After).Control.(bezier.CornerControl)
	want := bezier.CornerControl{
		Before: &bezier.ControlPoint{Angle: 30, Length: 8},
		After:  &bezier.ControlPoint{Angle: 30, Length: -8},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("equalized corner mismatch:\n%s", diff)
	}
}

func TestExtensionPreview(t *testing.T) {
	if _, ok := ExtensionPreview(line()); ok {
		t.Fatalf("preview while idle")
	}
	if _, ok := ExtensionPreview(Reduce(line(), EnterExtendMode(bezier.After))); ok {
		t.Fatalf("preview without a proposal")
	}
	s := apply(line(), EnterExtendMode(bezier.After), LayerMove(150, 50))
	got, ok := ExtensionPreview(s)
	if !ok {
		t.Fatalf("no preview for placed vertex")
	}
	want := bezier.Curve{smoothAt(100, 0, 0, 0, 0), bezier.V(150, 50)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("preview mismatch (-want +got):\n%s", diff)
	}

	b := apply(line(), EnterExtendMode(bezier.Before), LayerMove(-50, 0), LayerDrag(-100, 0))
	got, _ = ExtensionPreview(b)
	if len(got) != 2 || got[0].Pos() != (bezier.Point{X: -50, Y: 0}) || got[1].Pos() != (bezier.Point{}) {
		t.Fatalf("before preview order wrong: %+v", got)
	}
	// the preview matches what the commit inserts
	committed := Reduce(b, LayerDragStop(-100, 0))
	if diff := cmp.Diff(committed.Points[:2], got, approx); diff != "" {
		t.Fatalf("preview differs from commit:\n%s", diff)
	}
}

func TestExtendAffordances(t *testing.T) {
	got := ExtendAffordances(line())
	want := []Affordance{
		{Index: 0, Polarity: bezier.Before, Angle: 0, Anchor: bezier.Point{X: -20, Y: 0}},
		{Index: 1, Polarity: bezier.After, Angle: 0, Anchor: bezier.Point{X: 120, Y: 0}},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Fatalf("affordances mismatch (-want +got):\n%s", diff)
	}
	if a := ExtendAffordances(Reduce(line(), EnterExtendMode(bezier.After))); a != nil {
		t.Fatalf("affordances while extending: %+v", a)
	}
	single := ExtendAffordances(NewEditableCurve(bezier.Curve{bezier.V(3, 3)}))
	if len(single) != 1 || single[0].Polarity != bezier.Before {
		t.Fatalf("single vertex affordances = %+v", single)
	}
	if a := ExtendAffordances(NewEditableCurve(nil)); a != nil {
		t.Fatalf("empty curve affordances = %+v", a)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
