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

	"beziered/internal/vector"
)

// PixelShift converts a polar handle to a cartesian delta. A nil handle yields (0,0).
func PixelShift(cp *ControlPoint) Point {
	if cp == nil {
		return Point{}
	}
	rad := cp.Angle * math.Pi / 180
	return Point{X: math.Cos(rad) * cp.Length, Y: math.Sin(rad) * cp.Length}
}

// Expand normalizes any handle representation into an explicit before/after pair.
func Expand(c Controls) (before, after *ControlPoint) {
	switch cp := c.(type) {
	case SmoothControl:
		if cp.Length != nil {
			before = &ControlPoint{Angle: cp.Angle, Length: -*cp.Length}
		}
		if cp.Length1 != nil {
			after = &ControlPoint{Angle: cp.Angle, Length: *cp.Length1}
		}
		return before, after
	case CornerControl:
		return copyArm(cp.Before), copyArm(cp.After)
	default:
		return nil, nil
	}
}

func copyArm(cp *ControlPoint) *ControlPoint {
	if cp == nil {
		return nil
	}
	c := *cp
	return &c
}

// ControlFor returns the arm of v on the given side, or nil.
func ControlFor(v Vertex, p Polarity) *ControlPoint {
	before, after := Expand(v.Control)
	if p < 1 {
		return before
	}
	return after
}

// Angle returns the angle of the arm matching p. When that arm is absent the
// opposite arm's angle is used; 0 when the vertex has no arms.
func Angle(v Vertex, p Polarity) float64 {
	c := ControlFor(v, p)
	if c == nil {
		c = ControlFor(v, p.Opposite())
	}
	if c == nil {
		return 0
	}
	return c.Angle
}

// GeneratePath builds the drawable path: a move to the first vertex and one
// cubic segment per consecutive vertex pair. Control points are
// p1 + PixelShift(after arm of p1) and p2 + PixelShift(before arm of p2).
func GeneratePath(c Curve) vector.Path {
	var p vector.Path
	for i, v := range c {
		if i == 0 {
			p.MoveTo(v.X, v.Y)
			continue
		}
		prev := c[i-1]
		c1 := PixelShift(ControlFor(prev, After))
		c2 := PixelShift(ControlFor(v, Before))
		p.CubicTo(prev.X+c1.X, prev.Y+c1.Y, v.X+c2.X, v.Y+c2.Y, v.X, v.Y)
	}
	return p
}

// Handle is the absolute position of one drawn handle arm.
type Handle struct {
	Polarity Polarity
	Control  ControlPoint
	Pos      Point
}

// Handles returns the drawn arms of v in before/after order; absent arms are skipped.
func Handles(v Vertex) []Handle {
	before, after := Expand(v.Control)
	var out []Handle
	for _, arm := range []struct {
		p  Polarity
		cp *ControlPoint
	}{{Before, before}, {After, after}} {
		if arm.cp == nil {
			continue
		}
		d := PixelShift(arm.cp)
		out = append(out, Handle{Polarity: arm.p, Control: *arm.cp, Pos: Point{X: v.X + d.X, Y: v.Y + d.Y}})
	}
	return out
}
