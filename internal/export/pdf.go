/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"

	"beziered/internal/bezier"
	"beziered/internal/storage"
	"beziered/internal/vector"
	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export behavior. The page is the export frame with
// plane units mapped 1:1 to points; the origin is top-left like the plane.
type PDFOptions struct {
	Options
	Title string
}

// RenderPDF writes a single-page PDF drawing c to w.
func RenderPDF(w io.Writer, c bezier.Curve, opt PDFOptions) error {
	o := opt.withDefaults()
	fr := Frame(c, o)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: fr.W, Ht: fr.H},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("beziered", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// plane -> page
	px := func(x float64) float64 { return x - fr.X }
	py := func(y float64) float64 { return y - fr.Y }

	setFillColor(pdf, o.Background)
	pdf.Rect(0, 0, fr.W, fr.H, "F")

	if len(c) > 1 && o.Style.Curve.Enabled {
		setDrawColor(pdf, o.Style.Curve.Color)
		pdf.SetLineWidth(o.Style.Curve.Width)
		pdf.SetLineCapStyle("round")
		pdf.SetLineJoinStyle("round")
		path := bezier.GeneratePath(c)
		for _, cmd := range path.Cmds {
			d := cmd.Data
			switch cmd.Op {
			case vector.MoveTo:
				pdf.MoveTo(px(d[0]), py(d[1]))
			case vector.LineTo:
				pdf.LineTo(px(d[0]), py(d[1]))
			case vector.CubicTo:
				pdf.CurveBezierCubicTo(px(d[0]), py(d[1]), px(d[2]), py(d[3]), px(d[4]), py(d[5]))
			case vector.Close:
				pdf.ClosePath()
			}
		}
		pdf.DrawPath("D")
	}

	if o.ShowHandles && o.Style.Handles.Enabled {
		setDrawColor(pdf, o.Style.Handles.Color)
		setFillColor(pdf, o.Style.Handles.Color)
		pdf.SetLineWidth(o.Style.Handles.Width)
		for _, v := range c {
			for _, h := range bezier.Handles(v) {
				pdf.Line(px(v.X), py(v.Y), px(h.Pos.X), py(h.Pos.Y))
				pdf.Circle(px(h.Pos.X), py(h.Pos.Y), o.Style.VertexRadius/2, "F")
			}
		}
	}

	if o.ShowVertices {
		setFillColor(pdf, o.Style.Vertex)
		for _, v := range c {
			pdf.Circle(px(v.X), py(v.Y), o.Style.VertexRadius, "F")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the document's curve to a PDF at outPath and returns the
// written path.
func ExportPDF(h *storage.DocumentHandle, outPath string, opt PDFOptions) (string, error) {
	out, err := resolveOut(h, outPath)
	if err != nil {
		return "", err
	}
	if opt.Title == "" {
		opt.Title = title(h)
	}
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create pdf: %w", err)
	}
	if err := RenderPDF(f, h.Doc.Points, opt); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return out, nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
