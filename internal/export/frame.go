/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders curve documents to SVG, PDF and PNG.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"beziered/internal/bezier"
	"beziered/internal/storage"
	"beziered/internal/vector"
)

const (
	ExportsDirName = "exports"

	defaultMargin = 16.0

	// emptyExtent is the frame size used for a curve without vertices.
	emptyExtent = 100.0
)

// Options are shared by all exporters. Units are plane units; PDF maps them
// 1:1 to points and PNG scales them by DPI/72.
//
//nolint:revive // keep fields explicit for clarity
type Options struct {
	Style        vector.Style
	ShowHandles  bool
	ShowVertices bool
	Margin       float64
	Background   vector.Color
}

func (o Options) withDefaults() Options {
	if o.Style == (vector.Style{}) {
		o.Style = vector.DefaultStyle()
	}
	if o.Margin <= 0 {
		o.Margin = defaultMargin
	}
	if o.Background.IsZero() {
		o.Background = vector.White
	}
	return o
}

// Frame returns the plane rectangle an export of c covers: the hull of the
// path (and of the handle arms when they are drawn) grown by the margin.
func Frame(c bezier.Curve, o Options) vector.Rect {
	o = o.withDefaults()
	if len(c) == 0 {
		return vector.R(0, 0, emptyExtent, emptyExtent)
	}
	path := bezier.GeneratePath(c)
	r := path.Bounds()
	if o.ShowHandles {
		for _, v := range c {
			for _, h := range bezier.Handles(v) {
				r = r.Union(vector.R(h.Pos.X, h.Pos.Y, 0, 0))
			}
		}
	}
	return r.Inset(-o.Margin, -o.Margin)
}

// resolveOut places relative output paths under <doc dir>/exports.
func resolveOut(h *storage.DocumentHandle, out string) (string, error) {
	if h == nil {
		return "", fmt.Errorf("document handle is nil")
	}
	if out == "" {
		return "", fmt.Errorf("output path is empty")
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(filepath.Dir(h.Path), ExportsDirName, out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	return out, nil
}

func title(h *storage.DocumentHandle) string {
	if h.Doc.Name != "" {
		return h.Doc.Name
	}
	return h.ID()
}
