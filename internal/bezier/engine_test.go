/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bezier

import (
	"math"
	"testing"

	"beziered/internal/vector"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestPixelShiftNil(t *testing.T) {
	if got := PixelShift(nil); got != (Point{}) {
		t.Fatalf("PixelShift(nil) = %+v, want zero", got)
	}
}

func TestPixelShiftMagnitudeAndDirection(t *testing.T) {
	for _, cp := range []ControlPoint{
		{Angle: 0, Length: 10},
		{Angle: 90, Length: 3},
		{Angle: 135, Length: 7.5},
		{Angle: -30, Length: 42},
		{Angle: 270, Length: 1},
	} {
		d := PixelShift(&cp)
		if got := math.Hypot(d.X, d.Y); !near(got, cp.Length) {
			t.Errorf("|PixelShift(%+v)| = %v, want %v", cp, got, cp.Length)
		}
		want := cp.Angle * math.Pi / 180
		if got := math.Atan2(d.Y, d.X); !near(math.Remainder(got-want, 2*math.Pi), 0) {
			t.Errorf("direction of PixelShift(%+v) = %v rad, want %v", cp, got, want)
		}
	}
}

func TestExpand(t *testing.T) {
	cases := []struct {
		desc       string
		in         Controls
		before, af *ControlPoint
	}{
		{desc: "nil", in: nil},
		{
			desc:   "smooth both arms",
			in:     Smooth(30, 10, 20),
			before: &ControlPoint{Angle: 30, Length: -10},
			af:     &ControlPoint{Angle: 30, Length: 20},
		},
		{
			desc:   "smooth before only",
			in:     SmoothControl{Angle: 45, Length: Float(5)},
			before: &ControlPoint{Angle: 45, Length: -5},
		},
		{
			desc: "smooth after only",
			in:   SmoothControl{Angle: 45, Length1: Float(5)},
			af:   &ControlPoint{Angle: 45, Length: 5},
		},
		{desc: "smooth no arms", in: SmoothControl{Angle: 45}},
		{
			desc:   "corner",
			in:     Corner(ControlPoint{Angle: 10, Length: 1}, ControlPoint{Angle: 200, Length: 2}),
			before: &ControlPoint{Angle: 10, Length: 1},
			af:     &ControlPoint{Angle: 200, Length: 2},
		},
		{
			desc: "corner after only",
			in:   CornerControl{After: &ControlPoint{Angle: 5, Length: 9}},
			af:   &ControlPoint{Angle: 5, Length: 9},
		},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			b, a := Expand(tc.in)
			if diff := cmp.Diff(tc.before, b); diff != "" {
				t.Errorf("before arm mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.af, a); diff != "" {
				t.Errorf("after arm mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandCornerDoesNotAlias(t *testing.T) {
	c := Corner(ControlPoint{Angle: 10, Length: 1}, ControlPoint{Angle: 20, Length: 2})
	b, _ := Expand(c)
	b.Length = 99
	if c.Before.Length != 1 {
		t.Fatalf("Expand must return copies of corner arms")
	}
}

func TestAngleFallback(t *testing.T) {
	if got := Angle(V(0, 0), Before); got != 0 {
		t.Fatalf("Angle without arms = %v, want 0", got)
	}
	onlyAfter := Vertex{Control: SmoothControl{Angle: 33, Length1: Float(4)}}
	if got := Angle(onlyAfter, Before); got != 33 {
		t.Fatalf("Angle falls back to opposite arm: got %v, want 33", got)
	}
	corner := Vertex{Control: Corner(ControlPoint{Angle: 10, Length: 1}, ControlPoint{Angle: 200, Length: 2})}
	if got := Angle(corner, After); got != 200 {
		t.Fatalf("Angle(corner, After) = %v, want 200", got)
	}
	if got := Angle(corner, Before); got != 10 {
		t.Fatalf("Angle(corner, Before) = %v, want 10", got)
	}
}

func TestGeneratePathSingleVertex(t *testing.T) {
	p := GeneratePath(Curve{V(3, 4)})
	if len(p.Cmds) != 1 || p.Cmds[0].Op != vector.MoveTo || p.Segments() != 0 {
		t.Fatalf("single vertex path = %+v, want one move-to", p.Cmds)
	}
	if got := p.String(); got != "M3,4" {
		t.Fatalf("path data = %q", got)
	}
}

func TestGeneratePathEmpty(t *testing.T) {
	p := GeneratePath(nil)
	if len(p.Cmds) != 0 {
		t.Fatalf("empty curve should produce no commands, got %+v", p.Cmds)
	}
}

func TestGeneratePathNullControlsDegenerate(t *testing.T) {
	p := GeneratePath(Curve{V(0, 0), V(100, 0)})
	if p.Segments() != 1 {
		t.Fatalf("expected one segment, got %d", p.Segments())
	}
	got := p.Cmds[1]
	want := vector.PathCmd{Op: vector.CubicTo, Data: [6]float64{0, 0, 100, 0, 100, 0}}
	if got != want {
		t.Fatalf("segment = %+v, want %+v", got, want)
	}
	if s := p.String(); s != "M0,0C0,0,100,0,100,0" {
		t.Fatalf("path data = %q", s)
	}
}

func TestGeneratePathUsesAfterThenBeforeArms(t *testing.T) {
	c := Curve{
		{X: 0, Y: 0, Control: Smooth(0, 7, 10)},
		{X: 100, Y: 0, Control: Smooth(0, 20, 3)},
		{X: 100, Y: 100, Control: Corner(ControlPoint{Angle: 90, Length: -15}, ControlPoint{Angle: 0, Length: 5})},
	}
	p := GeneratePath(c)
	if p.Segments() != 2 {
		t.Fatalf("expected 2 segments, got %d", p.Segments())
	}
	// segment 1: after arm of v0 = (10,0); before arm of v1 = -20 at 0deg => (-20,0)
	s1 := p.Cmds[1].Data
	want1 := [6]float64{10, 0, 80, 0, 100, 0}
	// segment 2: after arm of v1 = (3,0); before arm of v2 = -15 at 90deg => (0,-15)
	s2 := p.Cmds[2].Data
	want2 := [6]float64{103, 0, 100, 85, 100, 100}
	opt := cmpopts.EquateApprox(0, eps)
	if diff := cmp.Diff(want1, s1, opt); diff != "" {
		t.Errorf("segment 1 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want2, s2, opt); diff != "" {
		t.Errorf("segment 2 (-want +got):\n%s", diff)
	}
}

func TestHandles(t *testing.T) {
	v := Vertex{X: 10, Y: 10, Control: SmoothControl{Angle: 0, Length: Float(5)}}
	hs := Handles(v)
	if len(hs) != 1 || hs[0].Polarity != Before {
		t.Fatalf("expected only the before handle, got %+v", hs)
	}
	if !near(hs[0].Pos.X, 5) || !near(hs[0].Pos.Y, 10) {
		t.Fatalf("before handle at %+v, want (5,10)", hs[0].Pos)
	}
	if len(Handles(V(0, 0))) != 0 {
		t.Fatalf("vertex without controls has no handles")
	}
}

func TestCurveEndpointAndClone(t *testing.T) {
	c := Curve{V(0, 0), V(1, 1), V(2, 2)}
	if c.Endpoint(Before) != 0 || c.Endpoint(After) != 2 {
		t.Fatalf("unexpected endpoints")
	}
	if (Curve{}).Endpoint(After) != -1 {
		t.Fatalf("empty curve has no endpoint")
	}
	cl := c.Clone()
	cl[0].X = 50
	if c[0].X != 0 {
		t.Fatalf("Clone must not share the backing array")
	}
}

func TestPolarity(t *testing.T) {
	if Before.Opposite() != After || After.Opposite() != Before {
		t.Fatalf("Opposite is broken")
	}
	if Polarity(0).Valid() || !Before.Valid() {
		t.Fatalf("Valid is broken")
	}
}
