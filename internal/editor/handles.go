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

	"beziered/internal/bezier"
)

// AngleThreshold is the drag distance in pixels a handle must exceed before
// its angle follows the pointer. Shorter drags only change the length.
const AngleThreshold = 5.0

// polar measures target relative to v. When the distance is above the
// threshold, raw is the pointer direction rotated by -180 degrees.
func polar(v bezier.Vertex, target bezier.Point) (raw, length float64, ok bool) {
	dx := target.X - v.X
	dy := target.Y - v.Y
	length = math.Hypot(dx, dy)
	if length > AngleThreshold {
		return math.Atan2(dy, dx)*180/math.Pi - 180, length, true
	}
	return 0, length, false
}

// MoveHandle returns v with the arm on side p dragged to pos.
//
// Smooth (and handle-less) vertices keep the shared-angle encoding: the
// stored angle is the BEFORE direction, so dragging the AFTER arm stores the
// complementary angle. Corner vertices update only the dragged arm.
func MoveHandle(v bezier.Vertex, p bezier.Polarity, pos bezier.Point) bezier.Vertex {
	raw, length, ok := polar(v, pos)
	if c, isCorner := v.Control.(bezier.CornerControl); isCorner {
		v.Control = moveCornerArm(v, c, p, raw, length, ok)
		return v
	}

	var s bezier.SmoothControl
	if c, isSmooth := v.Control.(bezier.SmoothControl); isSmooth {
		s = c
	}
	// below the threshold the stored angle stays as it is
	angle := bezier.Angle(v, p)
	if ok {
		angle = raw
		if p == bezier.After {
			angle = raw + 180
		}
	}
	s.Angle = angle
	if p == bezier.After {
		s.Length1 = bezier.Float(length)
	} else {
		s.Length = bezier.Float(length)
	}
	v.Control = s
	return v
}

func moveCornerArm(v bezier.Vertex, c bezier.CornerControl, p bezier.Polarity, raw, length float64, ok bool) bezier.CornerControl {
	// corner arms are plain polar vectors: the arm points at the pointer
	angle := bezier.Angle(v, p)
	if ok {
		angle = raw + 180
	} else if cur := bezier.ControlFor(v, p); cur != nil && cur.Length < 0 {
		angle = cur.Angle + 180
	}
	arm := &bezier.ControlPoint{Angle: angle, Length: length}
	if p == bezier.After {
		c.After = arm
	} else {
		c.Before = arm
	}
	return c
}

// CreateControlPoint derives a symmetric handle for vertex from the pointer
// target: both arms get the pointer distance as length.
func CreateControlPoint(vertex bezier.Vertex, target bezier.Point, p bezier.Polarity) bezier.SmoothControl {
	raw, length, ok := polar(vertex, target)
	angle := raw
	if !ok {
		angle = bezier.Angle(vertex, p)
	}
	return bezier.Smooth(angle, length, length)
}
