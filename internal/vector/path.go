/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"strconv"
	"strings"
)

// Path commands.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

// Pts returns the points carried by the command (end point last).
func (c PathCmd) Pts() []Pt {
	switch c.Op {
	case MoveTo, LineTo:
		return []Pt{{c.Data[0], c.Data[1]}}
	case CubicTo:
		return []Pt{{c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}, {c.Data[4], c.Data[5]}}
	}
	return nil
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Segments returns the number of drawing commands after the initial move.
func (p *Path) Segments() int {
	n := 0
	for _, c := range p.Cmds {
		if c.Op == LineTo || c.Op == CubicTo {
			n++
		}
	}
	return n
}

// Transform returns a copy of the path with every point mapped by m.
func (p *Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		nc := PathCmd{Op: c.Op}
		for j, pt := range c.Pts() {
			q := m.Apply(pt)
			nc.Data[2*j] = q.X
			nc.Data[2*j+1] = q.Y
		}
		out.Cmds[i] = nc
	}
	return out
}

// Bounds returns an axis-aligned bounding box of the path using a simple
// approximation by considering control points. This is sufficient for UI layout
// and view boxes; the hull of a cubic always contains the curve.
func (p *Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range p.Cmds {
		for _, pt := range c.Pts() {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// String renders the path as SVG path data, e.g. "M0,0C10,0,90,0,100,0".
// Numbers use the shortest representation that round-trips.
func (p *Path) String() string {
	var b strings.Builder
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			b.WriteByte('M')
			writeNums(&b, c.Data[:2])
		case LineTo:
			b.WriteByte('L')
			writeNums(&b, c.Data[:2])
		case CubicTo:
			b.WriteByte('C')
			writeNums(&b, c.Data[:6])
		case Close:
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func writeNums(b *strings.Builder, vs []float64) {
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(FormatNum(v))
	}
}

// FormatNum formats v the way path data and SVG attributes expect it.
func FormatNum(v float64) string {
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
