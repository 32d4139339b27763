/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package importer

import (
	"fmt"
	"strconv"
	"strings"

	"beziered/internal/bezier"
	"beziered/internal/vector"
)

// ParseTransform parses an SVG transform list such as
// "translate(10 20) rotate(45, 5, 5)" into a single affine transform. The
// rightmost entry is applied first.
func ParseTransform(s string) (vector.Affine2D, error) {
	m := vector.Identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		end := strings.IndexByte(rest, ')')
		if open <= 0 || end < open {
			return vector.Identity, fmt.Errorf("malformed transform %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := transformArgs(rest[open+1 : end])
		if err != nil {
			return vector.Identity, fmt.Errorf("transform %s: %w", name, err)
		}
		t, err := transformOf(name, args)
		if err != nil {
			return vector.Identity, err
		}
		m = m.Mul(t)
		rest = strings.TrimLeft(rest[end+1:], " \t\r\n,")
	}
	return m, nil
}

func transformArgs(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func transformOf(name string, a []float64) (vector.Affine2D, error) {
	bad := func() (vector.Affine2D, error) {
		return vector.Identity, fmt.Errorf("transform %s: unexpected %d arguments", name, len(a))
	}
	switch name {
	case "matrix":
		if len(a) != 6 {
			return bad()
		}
		return vector.Affine2D{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}, nil
	case "translate":
		switch len(a) {
		case 1:
			return vector.Translate(a[0], 0), nil
		case 2:
			return vector.Translate(a[0], a[1]), nil
		}
		return bad()
	case "scale":
		switch len(a) {
		case 1:
			return vector.Scale(a[0], a[0]), nil
		case 2:
			return vector.Scale(a[0], a[1]), nil
		}
		return bad()
	case "rotate":
		switch len(a) {
		case 1:
			return vector.Rotate(a[0]), nil
		case 3:
			return vector.Translate(a[1], a[2]).Mul(vector.Rotate(a[0])).Mul(vector.Translate(-a[1], -a[2])), nil
		}
		return bad()
	case "skewX":
		if len(a) != 1 {
			return bad()
		}
		return vector.SkewX(a[0]), nil
	case "skewY":
		if len(a) != 1 {
			return bad()
		}
		return vector.SkewY(a[0]), nil
	}
	return vector.Identity, fmt.Errorf("unknown transform %q", name)
}

// Transform returns sp with every point mapped through m.
func (sp Subpath) Transform(m vector.Affine2D) Subpath {
	if m == vector.Identity {
		return sp
	}
	apply := func(p bezier.Point) bezier.Point {
		q := m.Apply(vector.Pt{X: p.X, Y: p.Y})
		return bezier.Point{X: q.X, Y: q.Y}
	}
	out := Subpath{Start: apply(sp.Start), Segments: make([]Segment, len(sp.Segments))}
	for i, s := range sp.Segments {
		out.Segments[i] = Segment{C1: apply(s.C1), C2: apply(s.C2), End: apply(s.End)}
	}
	return out
}
