/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "beziered/internal/bezier"

// AffordanceOffset is the distance of an extension placeholder from its endpoint.
const AffordanceOffset = 20.0

func layerMove(s EditableCurve, pos bezier.Point) (EditableCurve, bool) {
	if !s.extending() {
		return s, false
	}
	if s.ProposedVertex != nil && s.ProposedVertex.Control != nil {
		// a handle is being dragged out
		return s, false
	}
	s.ProposedVertex = &bezier.Vertex{X: pos.X, Y: pos.Y}
	return s, true
}

func layerDrag(s EditableCurve, pos bezier.Point) (EditableCurve, bool) {
	if !s.extending() || s.ProposedVertex == nil {
		return s, false
	}
	pv := *s.ProposedVertex
	pv.Control = CreateControlPoint(pv, pos, s.EditMode.Polarity)
	s.ProposedVertex = &pv
	return s, true
}

func layerDragStop(s EditableCurve, pos bezier.Point) (EditableCurve, bool) {
	s, ok := layerDrag(s, pos)
	if !ok {
		return s, false
	}
	p := s.EditMode.Polarity
	nv := committed(*s.ProposedVertex)

	pts := make(bezier.Curve, 0, len(s.Points)+1)
	if i := s.Points.Endpoint(p); i >= 0 {
		end := s.Points.Clone()
		end[i] = equalizeJoin(end[i], p)
		pts = append(pts, end...)
	}
	if p == bezier.Before {
		pts = append(bezier.Curve{nv}, pts...)
	} else {
		pts = append(pts, nv)
	}
	s.Points = pts
	s.ProposedVertex = nil
	return s, true
}

// committed turns a proposal into the vertex that is inserted into the curve.
// The handle was authored along the outward drag; stored it points inward.
func committed(v bezier.Vertex) bezier.Vertex {
	if sc, ok := v.Control.(bezier.SmoothControl); ok {
		sc.Angle += 180
		v.Control = sc
	}
	return v
}

// equalizeJoin gives the endpoint at side p arms of equal length on both
// sides so that the new segment attaches with a handle.
func equalizeJoin(v bezier.Vertex, p bezier.Polarity) bezier.Vertex {
	switch c := v.Control.(type) {
	case nil:
		v.Control = bezier.Smooth(bezier.Angle(v, p), 0, 0)
	case bezier.SmoothControl:
		l := 0.0
		if c.Length != nil {
			l = *c.Length
		} else if c.Length1 != nil {
			l = *c.Length1
		}
		v.Control = bezier.Smooth(c.Angle, l, l)
	case bezier.CornerControl:
		before, after := c.Before, c.After
		switch {
		case before == nil && after == nil:
			before = &bezier.ControlPoint{}
			after = &bezier.ControlPoint{}
		case before == nil:
			before = &bezier.ControlPoint{Angle: after.Angle, Length: -after.Length}
		case after == nil:
			after = &bezier.ControlPoint{Angle: before.Angle, Length: -before.Length}
		}
		v.Control = bezier.CornerControl{Before: before, After: after}
	}
	return v
}

// ExtensionPreview returns the tentative segment between the extended
// endpoint and the proposed vertex, in curve order, as it would look after
// committing. It reports false when there is nothing to preview.
func ExtensionPreview(s EditableCurve) (bezier.Curve, bool) {
	switch s.State() {
	case ExtendingPlaced, ExtendingHandle:
	default:
		return nil, false
	}
	p := s.EditMode.Polarity
	nv := committed(*s.ProposedVertex)
	i := s.Points.Endpoint(p)
	if i < 0 {
		return bezier.Curve{nv}, true
	}
	end := equalizeJoin(s.Points[i], p)
	if p == bezier.Before {
		return bezier.Curve{nv, end}, true
	}
	return bezier.Curve{end, nv}, true
}

// Affordance is a placeholder drawn next to an open end that starts an
// extension at that end when activated.
type Affordance struct {
	Index    int
	Polarity bezier.Polarity
	Angle    float64
	Anchor   bezier.Point
}

// ExtendAffordances lists the extension placeholders for an idle curve. The
// placeholder sits AffordanceOffset away from the endpoint, continuing the
// direction of the arm that faces into the curve.
func ExtendAffordances(s EditableCurve) []Affordance {
	if s.extending() || len(s.Points) == 0 {
		return nil
	}
	var out []Affordance
	for _, p := range []bezier.Polarity{bezier.Before, bezier.After} {
		i := s.Points.Endpoint(p)
		if p == bezier.After && i == 0 {
			continue
		}
		v := s.Points[i]
		angle := bezier.Angle(v, p.Opposite())
		d := bezier.PixelShift(&bezier.ControlPoint{Angle: angle, Length: AffordanceOffset * float64(p)})
		out = append(out, Affordance{
			Index:    i,
			Polarity: p,
			Angle:    angle,
			Anchor:   bezier.Point{X: v.X + d.X, Y: v.Y + d.Y},
		})
	}
	return out
}
