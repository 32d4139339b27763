/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bezier holds the vertex/handle model of an editable piecewise cubic
// curve and the pure geometry that turns it into drawable path commands.
//
// Handles are stored in polar form relative to their vertex. A smooth vertex
// keeps one shared angle for both arms; the BEFORE arm length is negated on
// expansion so it points at angle+180. A corner vertex keeps two independent
// arms.
package bezier

// Polarity identifies which side of a vertex, or which end of a curve, is meant.
type Polarity int

const (
	Before Polarity = -1
	After  Polarity = 1
)

// Opposite returns the other polarity.
func (p Polarity) Opposite() Polarity { return -p }

// Valid reports whether p is one of the two defined values.
func (p Polarity) Valid() bool { return p == Before || p == After }

func (p Polarity) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "invalid"
	}
}

// Point is an absolute plane coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ControlPoint is a tangent handle in polar form relative to its vertex.
// Angle is in degrees from the positive x axis.
type ControlPoint struct {
	Angle  float64 `json:"angle"`
	Length float64 `json:"length"`
}

// Controls is the handle representation of a vertex: nil, SmoothControl or
// CornerControl.
type Controls interface {
	isControls()
}

// SmoothControl shares one angle between both arms. A nil length means that
// arm is absent.
type SmoothControl struct {
	Angle   float64
	Length  *float64 // BEFORE arm, negated on expansion
	Length1 *float64 // AFTER arm
}

// CornerControl has two independent arms; either may be nil.
type CornerControl struct {
	Before *ControlPoint
	After  *ControlPoint
}

func (SmoothControl) isControls() {}
func (CornerControl) isControls() {}

// Smooth builds a SmoothControl with both arms present.
func Smooth(angle, length, length1 float64) SmoothControl {
	return SmoothControl{Angle: angle, Length: &length, Length1: &length1}
}

// Corner builds a CornerControl with both arms present.
func Corner(before, after ControlPoint) CornerControl {
	return CornerControl{Before: &before, After: &after}
}

// Float returns a pointer to v; handy for optional arm lengths.
func Float(v float64) *float64 { return &v }

// IsSmooth reports whether c is the shared-angle form.
func IsSmooth(c Controls) bool {
	_, ok := c.(SmoothControl)
	return ok
}

// Vertex is a point on the curve with its handles.
type Vertex struct {
	X       float64
	Y       float64
	Control Controls
}

// V builds a vertex without handles.
func V(x, y float64) Vertex { return Vertex{X: x, Y: y} }

// Pos returns the vertex position.
func (v Vertex) Pos() Point { return Point{X: v.X, Y: v.Y} }

// Curve is an ordered list of vertices from start to end.
type Curve []Vertex

// Clone returns a copy whose slice can be modified without touching c.
// Controls are immutable values and are shared.
func (c Curve) Clone() Curve {
	if c == nil {
		return nil
	}
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// Endpoint returns the index of the open end named by p, or -1 for an empty curve.
func (c Curve) Endpoint(p Polarity) int {
	if len(c) == 0 {
		return -1
	}
	if p == Before {
		return 0
	}
	return len(c) - 1
}
