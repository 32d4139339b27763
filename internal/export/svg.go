/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"beziered/internal/bezier"
	"beziered/internal/storage"
	"beziered/internal/vector"
)

// SVGOptions controls SVG export behavior. The viewBox is the export frame in
// plane units; width/height attributes are pixels derived from DPI.
type SVGOptions struct {
	Options
	DPI   int
	Title string
}

// RenderSVG returns an SVG document drawing c.
func RenderSVG(c bezier.Curve, opt SVGOptions) ([]byte, error) {
	o := opt.withDefaults()
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 96
	}
	fr := Frame(c, o)
	scale := float64(dpi) / 72.0
	pxW := int(math.Round(fr.W * scale))
	pxH := int(math.Round(fr.H * scale))

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}
	n := vector.FormatNum

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"%s %s %s %s\">\n",
		pxW, pxH, n(fr.X), n(fr.Y), n(fr.W), n(fr.H))
	if opt.Title != "" {
		wf("  <title>%s</title>\n", escText(opt.Title))
	}
	wf("  <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\"/>\n", n(fr.X), n(fr.Y), n(fr.W), n(fr.H), o.Background.Hex())

	if len(c) > 1 && o.Style.Curve.Enabled {
		path := bezier.GeneratePath(c)
		wf("  <path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%s\" stroke-linecap=\"round\" stroke-linejoin=\"round\"/>\n",
			path.String(), o.Style.Curve.Color.Hex(), n(o.Style.Curve.Width))
	}

	if o.ShowHandles && o.Style.Handles.Enabled {
		hc := o.Style.Handles.Color.Hex()
		r := o.Style.VertexRadius / 2
		wf("  <g class=\"handles\" stroke=\"%s\" stroke-width=\"%s\" fill=\"%s\">\n", hc, n(o.Style.Handles.Width), hc)
		for i, v := range c {
			for _, h := range bezier.Handles(v) {
				wf("    <line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\" data-vertex=\"%d\" data-polarity=\"%s\"/>\n",
					n(v.X), n(v.Y), n(h.Pos.X), n(h.Pos.Y), i, h.Polarity)
				wf("    <circle cx=\"%s\" cy=\"%s\" r=\"%s\"/>\n", n(h.Pos.X), n(h.Pos.Y), n(r))
			}
		}
		wf("  </g>\n")
	}

	if o.ShowVertices {
		wf("  <g class=\"vertices\" fill=\"%s\">\n", o.Style.Vertex.Hex())
		for _, v := range c {
			wf("    <circle cx=\"%s\" cy=\"%s\" r=\"%s\"/>\n", n(v.X), n(v.Y), n(o.Style.VertexRadius))
		}
		wf("  </g>\n")
	}

	wf("</svg>\n")
	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

// ExportSVG writes the document's curve as SVG to outPath. Relative paths are
// placed under the document's exports folder. It returns the written path.
func ExportSVG(h *storage.DocumentHandle, outPath string, opt SVGOptions) (string, error) {
	out, err := resolveOut(h, outPath)
	if err != nil {
		return "", err
	}
	if opt.Title == "" {
		opt.Title = title(h)
	}
	data, err := RenderSVG(h.Doc.Points, opt)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write svg: %w", err)
	}
	return out, nil
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escText(s string) string { return textEscaper.Replace(s) }
