/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package importer reads curves from SVG path elements and converts the
// absolute cubic control points back into polar handles.
package importer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"beziered/internal/bezier"
	applog "beziered/internal/log"
	"beziered/internal/vector"
	"github.com/JoshVarga/svgparser"
	"golang.org/x/net/html/charset"
)

// Precision is the number of decimals kept for imported angles and lengths.
const Precision = 6

// collinearTolerance bounds |sin| of the angle between the two arms for the
// vertex to be imported as smooth.
const collinearTolerance = 1e-6

// ImportedPath is one curve read from a <path> element.
type ImportedPath struct {
	ID    string
	Curve bezier.Curve
}

// ReadSVG parses an SVG document and returns one curve per subpath of every
// <path> element, in document order. Group and path transforms are applied
// to the points; elements whose transform cannot be parsed are skipped with
// a warning.
func ReadSVG(r io.Reader) ([]ImportedPath, error) {
	l := applog.WithOperation(applog.WithComponent("importer"), "read-svg")
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read svg: %w", err)
	}
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel
	root, err := svgparser.DecodeFirst(decoder)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if err := root.Decode(decoder); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if root.Name != "svg" {
		return nil, fmt.Errorf("parse svg: root element is <%s>", root.Name)
	}
	var out []ImportedPath
	if err := collect(l, root, vector.Identity, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportFile reads the SVG file at path.
func ImportFile(path string) ([]ImportedPath, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open svg: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadSVG(f)
}

// collect walks e in document order. m is the transform inherited from the
// enclosing groups.
func collect(l *slog.Logger, e *svgparser.Element, m vector.Affine2D, out *[]ImportedPath) error {
	for _, c := range e.Children {
		if c.Name != "g" && c.Name != "path" {
			l.Debug("ignoring element", slog.String("name", c.Name))
			continue
		}
		cm := m
		if t := strings.TrimSpace(c.Attributes["transform"]); t != "" {
			own, err := ParseTransform(t)
			if err != nil {
				l.Warn("skipping element with unsupported transform", slog.String("name", c.Name), slog.String("id", c.Attributes["id"]), slog.Any("err", err))
				continue
			}
			cm = m.Mul(own)
		}
		if c.Name == "g" {
			if err := collect(l, c, cm, out); err != nil {
				return err
			}
			continue
		}
		subs, err := ParsePathData(c.Attributes["d"])
		if err != nil {
			return fmt.Errorf("path %q: %w", c.Attributes["id"], err)
		}
		for i, sp := range subs {
			id := c.Attributes["id"]
			if len(subs) > 1 && id != "" {
				id = fmt.Sprintf("%s-%d", id, i+1)
			}
			*out = append(*out, ImportedPath{ID: id, Curve: ToCurve(sp.Transform(cm))})
		}
	}
	return nil
}

// ToCurve converts a subpath into vertices with polar handles. An arm whose
// control point coincides with its vertex is absent. Two arms pointing in
// opposite directions form a smooth control, anything else a corner.
func ToCurve(sp Subpath) bezier.Curve {
	pts := make([]bezier.Point, 0, len(sp.Segments)+1)
	pts = append(pts, sp.Start)
	for _, s := range sp.Segments {
		pts = append(pts, s.End)
	}
	out := make(bezier.Curve, len(pts))
	for i, p := range pts {
		var before, after *bezier.Point
		if i > 0 {
			before = delta(p, sp.Segments[i-1].C2)
		}
		if i < len(sp.Segments) {
			after = delta(p, sp.Segments[i].C1)
		}
		out[i] = bezier.Vertex{X: p.X, Y: p.Y, Control: controls(before, after)}
	}
	return out
}

func delta(from, to bezier.Point) *bezier.Point {
	d := bezier.Point{X: to.X - from.X, Y: to.Y - from.Y}
	if d.X == 0 && d.Y == 0 {
		return nil
	}
	return &d
}

func controls(before, after *bezier.Point) bezier.Controls {
	switch {
	case before == nil && after == nil:
		return nil
	case before == nil:
		a, l := polar(*after)
		return bezier.SmoothControl{Angle: a, Length1: bezier.Float(l)}
	case after == nil:
		a, l := polar(*before)
		return bezier.SmoothControl{Angle: normalize(a + 180), Length: bezier.Float(l)}
	}
	ab, lb := polar(*before)
	aa, la := polar(*after)
	cross := before.X*after.Y - before.Y*after.X
	dot := before.X*after.X + before.Y*after.Y
	if dot < 0 && math.Abs(cross) <= collinearTolerance*lb*la {
		return bezier.Smooth(aa, lb, la)
	}
	return bezier.Corner(bezier.ControlPoint{Angle: ab, Length: lb}, bezier.ControlPoint{Angle: aa, Length: la})
}

// polar returns the angle in degrees in (-180, 180] and the length of d.
func polar(d bezier.Point) (angle, length float64) {
	angle = math.Atan2(d.Y, d.X) * 180 / math.Pi
	return vector.FloatRound(normalize(angle), Precision), vector.FloatRound(math.Hypot(d.X, d.Y), Precision)
}

func normalize(a float64) float64 {
	for a <= -180 {
		a += 360
	}
	for a > 180 {
		a -= 360
	}
	if a == 0 {
		return 0 // drop -0
	}
	return a
}
