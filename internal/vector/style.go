/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"image/color"
)

// Styles and paint definitions shared by the exporters.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// IsZero reports whether c is the zero value (used to apply defaults).
func (c Color) IsZero() bool { return c == Color{} }

// Hex returns the #rrggbb form used in SVG attributes.
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// RGBA converts to the image/color type.
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// ParseHex parses "#rrggbb" or "rrggbb". Invalid input returns an error.
func ParseHex(s string) (Color, error) {
	var c Color
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c.A = 255
	return c, nil
}

type Stroke struct {
	Color   Color
	Width   float64
	Enabled bool
}

// Style groups the paints used to draw an editable curve.
type Style struct {
	Curve   Stroke
	Handles Stroke
	Vertex  Color
	// VertexRadius is the drawn radius of vertex dots; handle dots use half of it.
	VertexRadius float64
}

// DefaultStyle mirrors the editor look: dark curve, grey handle arms.
func DefaultStyle() Style {
	return Style{
		Curve:        Stroke{Color: Color{0x33, 0x33, 0x33, 255}, Width: 2, Enabled: true},
		Handles:      Stroke{Color: Color{0x88, 0x88, 0x88, 255}, Width: 1, Enabled: true},
		Vertex:       Color{0x1f, 0x6f, 0xd1, 255},
		VertexRadius: 5,
	}
}
