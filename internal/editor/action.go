/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"io"
	"strings"

	"beziered/internal/bezier"
	"gopkg.in/yaml.v3"
)

type ActionType string

const (
	ActDragVertex      ActionType = "drag-vertex"
	ActDragHandle      ActionType = "drag-handle"
	ActEnterExtendMode ActionType = "enter-extend-mode"
	ActExitExtendMode  ActionType = "exit-extend-mode"
	ActLayerMove       ActionType = "layer-move"
	ActLayerDrag       ActionType = "layer-drag"
	ActLayerDragStop   ActionType = "layer-drag-stop"

	// ActUndo and ActRedo are script steps handled by Editor.Apply; Reduce
	// ignores them.
	ActUndo ActionType = "undo"
	ActRedo ActionType = "redo"
)

// Action is a discrete interaction event. It only carries primitive fields;
// X,Y are plane coordinates already translated from device space.
type Action struct {
	Type     ActionType      `json:"type"`
	Index    int             `json:"index,omitempty"`
	X        float64         `json:"x,omitempty"`
	Y        float64         `json:"y,omitempty"`
	Polarity bezier.Polarity `json:"polarity,omitempty"`
}

func (a Action) String() string {
	switch a.Type {
	case ActDragVertex:
		return fmt.Sprintf("%s(%d, %g,%g)", a.Type, a.Index, a.X, a.Y)
	case ActDragHandle:
		return fmt.Sprintf("%s(%d, %s, %g,%g)", a.Type, a.Index, a.Polarity, a.X, a.Y)
	case ActEnterExtendMode:
		return fmt.Sprintf("%s(%s)", a.Type, a.Polarity)
	case ActExitExtendMode, ActUndo, ActRedo:
		return string(a.Type)
	default:
		return fmt.Sprintf("%s(%g,%g)", a.Type, a.X, a.Y)
	}
}

func DragVertex(index int, x, y float64) Action {
	return Action{Type: ActDragVertex, Index: index, X: x, Y: y}
}

func DragHandle(index int, p bezier.Polarity, x, y float64) Action {
	return Action{Type: ActDragHandle, Index: index, Polarity: p, X: x, Y: y}
}

func EnterExtendMode(p bezier.Polarity) Action {
	return Action{Type: ActEnterExtendMode, Polarity: p}
}

func ExitExtendMode() Action { return Action{Type: ActExitExtendMode} }

func LayerMove(x, y float64) Action { return Action{Type: ActLayerMove, X: x, Y: y} }

func LayerDrag(x, y float64) Action { return Action{Type: ActLayerDrag, X: x, Y: y} }

func LayerDragStop(x, y float64) Action { return Action{Type: ActLayerDragStop, X: x, Y: y} }

// scriptAction is the YAML form used by action scripts:
//
//	- {type: enter-extend-mode, polarity: after}
//	- {type: layer-move, x: 150, y: 50}
type scriptAction struct {
	Type     string  `yaml:"type"`
	Index    int     `yaml:"index"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Polarity string  `yaml:"polarity"`
}

// ParsePolarity accepts before/after as well as -1/1.
func ParsePolarity(s string) (bezier.Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before", "start", "-1":
		return bezier.Before, nil
	case "after", "end", "1":
		return bezier.After, nil
	}
	return 0, fmt.Errorf("invalid polarity %q", s)
}

// LoadScript reads a YAML list of actions.
func LoadScript(r io.Reader) ([]Action, error) {
	var raw []scriptAction
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	out := make([]Action, 0, len(raw))
	for i, s := range raw {
		a := Action{Type: ActionType(s.Type), Index: s.Index, X: s.X, Y: s.Y}
		switch a.Type {
		case ActDragVertex, ActLayerMove, ActLayerDrag, ActLayerDragStop, ActExitExtendMode, ActUndo, ActRedo:
		case ActDragHandle, ActEnterExtendMode:
			p, err := ParsePolarity(s.Polarity)
			if err != nil {
				return nil, fmt.Errorf("script action %d: %w", i, err)
			}
			a.Polarity = p
		default:
			return nil, fmt.Errorf("script action %d: unknown type %q", i, s.Type)
		}
		out = append(out, a)
	}
	return out, nil
}
