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
	"unicode"

	"beziered/internal/bezier"
)

// Segment is one absolute cubic piece of a subpath. A straight line is a
// cubic whose control points sit on its ends.
type Segment struct {
	C1, C2, End bezier.Point
}

// Subpath is a start point followed by cubic segments.
type Subpath struct {
	Start    bezier.Point
	Segments []Segment
}

// ParsePathData reads SVG path data limited to the commands an editable curve
// can express: M, L, H, V, C, S and Z, absolute or relative.
func ParsePathData(d string) ([]Subpath, error) {
	toks, err := tokenize(d)
	if err != nil {
		return nil, err
	}
	var (
		out     []Subpath
		cur     *Subpath
		pos     bezier.Point
		lastC2  bezier.Point
		lastCmd byte
		i       int
	)
	num := func() (float64, error) {
		if i >= len(toks) || toks[i].cmd != 0 {
			return 0, fmt.Errorf("path data: expected number at token %d", i)
		}
		v := toks[i].num
		i++
		return v, nil
	}
	pt := func(rel bool) (bezier.Point, error) {
		x, err := num()
		if err != nil {
			return bezier.Point{}, err
		}
		y, err := num()
		if err != nil {
			return bezier.Point{}, err
		}
		if rel {
			return bezier.Point{X: pos.X + x, Y: pos.Y + y}, nil
		}
		return bezier.Point{X: x, Y: y}, nil
	}
	push := func(s Segment) error {
		if cur == nil {
			return fmt.Errorf("path data: drawing command before M")
		}
		cur.Segments = append(cur.Segments, s)
		lastC2 = s.C2
		pos = s.End
		return nil
	}
	line := func(to bezier.Point) error {
		return push(Segment{C1: pos, C2: to, End: to})
	}

	var cmd byte
	for i < len(toks) {
		if toks[i].cmd != 0 {
			cmd = toks[i].cmd
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data: number before first command")
		}
		rel := unicode.IsLower(rune(cmd))
		switch unicode.ToUpper(rune(cmd)) {
		case 'M':
			p, err := pt(rel)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &Subpath{Start: p}
			pos = p
			// further pairs are implicit line-tos
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
			lastCmd = 'M'
			continue
		case 'L':
			p, err := pt(rel)
			if err != nil {
				return nil, err
			}
			if err := line(p); err != nil {
				return nil, err
			}
		case 'H':
			x, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				x += pos.X
			}
			if err := line(bezier.Point{X: x, Y: pos.Y}); err != nil {
				return nil, err
			}
		case 'V':
			y, err := num()
			if err != nil {
				return nil, err
			}
			if rel {
				y += pos.Y
			}
			if err := line(bezier.Point{X: pos.X, Y: y}); err != nil {
				return nil, err
			}
		case 'C':
			c1, err := pt(rel)
			if err != nil {
				return nil, err
			}
			c2, err := pt(rel)
			if err != nil {
				return nil, err
			}
			end, err := pt(rel)
			if err != nil {
				return nil, err
			}
			if err := push(Segment{C1: c1, C2: c2, End: end}); err != nil {
				return nil, err
			}
		case 'S':
			c1 := pos
			if lastCmd == 'C' || lastCmd == 'S' {
				c1 = bezier.Point{X: 2*pos.X - lastC2.X, Y: 2*pos.Y - lastC2.Y}
			}
			c2, err := pt(rel)
			if err != nil {
				return nil, err
			}
			end, err := pt(rel)
			if err != nil {
				return nil, err
			}
			if err := push(Segment{C1: c1, C2: c2, End: end}); err != nil {
				return nil, err
			}
		case 'Z':
			if cur == nil {
				return nil, fmt.Errorf("path data: Z before M")
			}
			if pos != cur.Start {
				if err := line(cur.Start); err != nil {
					return nil, err
				}
			}
			out = append(out, *cur)
			pos = cur.Start
			cur = nil
			cmd = 0
		default:
			return nil, fmt.Errorf("path data: unsupported command %q", cmd)
		}
		lastCmd = byte(unicode.ToUpper(rune(cmd)))
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out, nil
}

type token struct {
	cmd byte
	num float64
}

func tokenize(d string) ([]token, error) {
	var toks []token
	s := d
	for len(s) > 0 {
		c := s[0]
		switch {
		case c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s = s[1:]
		case strings.IndexByte("MmLlHhVvCcSsZzQqTtAa", c) >= 0:
			toks = append(toks, token{cmd: c})
			s = s[1:]
		default:
			n := numberLen(s)
			if n == 0 {
				return nil, fmt.Errorf("path data: unexpected %q", c)
			}
			v, err := strconv.ParseFloat(s[:n], 64)
			if err != nil {
				return nil, fmt.Errorf("path data: %w", err)
			}
			toks = append(toks, token{num: v})
			s = s[n:]
		}
	}
	return toks, nil
}

// numberLen returns the length of the number at the start of s. A second dot
// or a sign not following an exponent ends the number ("1.5.5" is 1.5 .5).
func numberLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits, dot := false, false
scan:
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot:
			dot = true
		default:
			break scan
		}
		i++
	}
	if !digits {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}
