/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bezier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire form of a vertex:
//
//	{"x": 0, "y": 0, "controlPoint": null}
//	{"x": 0, "y": 0, "controlPoint": {"angle": 10, "length": 20, "length1": null}}
//	{"x": 0, "y": 0, "controlPoint": [{"angle": 10, "length": 20}, null]}

type vertexJSON struct {
	X            float64         `json:"x"`
	Y            float64         `json:"y"`
	ControlPoint json.RawMessage `json:"controlPoint"`
}

type smoothJSON struct {
	Angle   *float64 `json:"angle"`
	Length  *float64 `json:"length"`
	Length1 *float64 `json:"length1"`
}

func (v Vertex) MarshalJSON() ([]byte, error) {
	raw, err := marshalControls(v.Control)
	if err != nil {
		return nil, err
	}
	return json.Marshal(vertexJSON{X: v.X, Y: v.Y, ControlPoint: raw})
}

func (v *Vertex) UnmarshalJSON(b []byte) error {
	var w vertexJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c, err := unmarshalControls(w.ControlPoint)
	if err != nil {
		return fmt.Errorf("vertex (%g,%g): %w", w.X, w.Y, err)
	}
	*v = Vertex{X: w.X, Y: w.Y, Control: c}
	return nil
}

func marshalControls(c Controls) (json.RawMessage, error) {
	switch cp := c.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case SmoothControl:
		a := cp.Angle
		return json.Marshal(smoothJSON{Angle: &a, Length: cp.Length, Length1: cp.Length1})
	case CornerControl:
		return json.Marshal([2]*ControlPoint{cp.Before, cp.After})
	default:
		return nil, fmt.Errorf("unsupported controls %T", c)
	}
}

func unmarshalControls(raw json.RawMessage) (Controls, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var arms []*ControlPoint
		if err := json.Unmarshal(raw, &arms); err != nil {
			return nil, fmt.Errorf("corner controls: %w", err)
		}
		if len(arms) != 2 {
			return nil, fmt.Errorf("corner controls need 2 arms, got %d", len(arms))
		}
		return CornerControl{Before: arms[0], After: arms[1]}, nil
	case '{':
		var s smoothJSON
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("smooth controls: %w", err)
		}
		if s.Angle == nil {
			return nil, errors.New("smooth controls without angle")
		}
		return SmoothControl{Angle: *s.Angle, Length: s.Length, Length1: s.Length1}, nil
	default:
		return nil, fmt.Errorf("unexpected controlPoint %s", string(raw))
	}
}
