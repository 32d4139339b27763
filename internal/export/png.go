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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"beziered/internal/bezier"
	"beziered/internal/storage"
	"beziered/internal/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	xvec "golang.org/x/image/vector"
)

const (
	defaultPNGDPI = 144
	flattenSteps  = 32
	discSides     = 16
	captionHeight = 18
)

// PNGOptions controls PNG export behavior.
// - DPI: output pixels per inch; plane units are points (1/72").
// - Caption: optional line of text drawn in a strip below the drawing.
type PNGOptions struct {
	Options
	DPI     int
	Caption string
}

// RenderPNG rasterizes c into a new image.
func RenderPNG(c bezier.Curve, opt PNGOptions) *image.RGBA {
	o := opt.withDefaults()
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = defaultPNGDPI
	}
	fr := Frame(c, o)
	scale := float64(dpi) / 72.0
	pixW := max(1, int(math.Round(fr.W*scale)))
	pixH := max(1, int(math.Round(fr.H*scale)))
	extra := 0
	if opt.Caption != "" {
		extra = captionHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH+extra))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: o.Background.RGBA()}, image.Point{}, draw.Src)

	vp := vector.Viewport{Device: vector.Size{W: float64(pixW), H: float64(pixH)}, View: fr}
	m := vp.Transform()
	unit := math.Min(float64(pixW)/fr.W, float64(pixH)/fr.H)

	if len(c) > 1 && o.Style.Curve.Enabled {
		path := bezier.GeneratePath(c)
		dev := path.Transform(m)
		strokePolylines(img, flatten(dev), o.Style.Curve.Width*unit, o.Style.Curve.Color.RGBA())
	}

	if o.ShowHandles && o.Style.Handles.Enabled {
		var arms [][]vector.Pt
		var dots []vector.Pt
		for _, v := range c {
			from := m.Apply(vector.Pt{X: v.X, Y: v.Y})
			for _, h := range bezier.Handles(v) {
				to := m.Apply(vector.Pt{X: h.Pos.X, Y: h.Pos.Y})
				arms = append(arms, []vector.Pt{from, to})
				dots = append(dots, to)
			}
		}
		col := o.Style.Handles.Color.RGBA()
		strokePolylines(img, arms, o.Style.Handles.Width*unit, col)
		fillDiscs(img, dots, o.Style.VertexRadius/2*unit, col)
	}

	if o.ShowVertices {
		dots := make([]vector.Pt, len(c))
		for i, v := range c {
			dots[i] = m.Apply(vector.Pt{X: v.X, Y: v.Y})
		}
		fillDiscs(img, dots, o.Style.VertexRadius*unit, o.Style.Vertex.RGBA())
	}

	if opt.Caption != "" {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{0x33, 0x33, 0x33, 0xff}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(4, pixH+extra-4),
		}
		d.DrawString(opt.Caption)
	}
	return img
}

// ExportPNG writes the document's curve as PNG to outPath and returns the
// written path.
func ExportPNG(h *storage.DocumentHandle, outPath string, opt PNGOptions) (string, error) {
	out, err := resolveOut(h, outPath)
	if err != nil {
		return "", err
	}
	img := RenderPNG(h.Doc.Points, opt)
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	return out, nil
}

// flatten turns a device-space path into polylines, one per subpath.
func flatten(p vector.Path) [][]vector.Pt {
	var out [][]vector.Pt
	var cur []vector.Pt
	for _, cmd := range p.Cmds {
		d := cmd.Data
		switch cmd.Op {
		case vector.MoveTo:
			if len(cur) > 1 {
				out = append(out, cur)
			}
			cur = []vector.Pt{{X: d[0], Y: d[1]}}
		case vector.LineTo:
			cur = append(cur, vector.Pt{X: d[0], Y: d[1]})
		case vector.CubicTo:
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			p1 := vector.Pt{X: d[0], Y: d[1]}
			p2 := vector.Pt{X: d[2], Y: d[3]}
			p3 := vector.Pt{X: d[4], Y: d[5]}
			for i := 1; i <= flattenSteps; i++ {
				cur = append(cur, cubicAt(p0, p1, p2, p3, float64(i)/flattenSteps))
			}
		case vector.Close:
			if len(cur) > 1 {
				cur = append(cur, cur[0])
			}
		}
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

func cubicAt(p0, p1, p2, p3 vector.Pt, t float64) vector.Pt {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return vector.Pt{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// strokePolylines draws lines of the given width with round joins and caps.
// Every segment quad and disc is emitted with the same winding so overlaps
// accumulate instead of cancelling.
func strokePolylines(img *image.RGBA, lines [][]vector.Pt, width float64, col color.RGBA) {
	if len(lines) == 0 {
		return
	}
	hw := math.Max(width/2, 0.5)
	b := img.Bounds()
	z := xvec.NewRasterizer(b.Dx(), b.Dy())
	for _, line := range lines {
		for i := 1; i < len(line); i++ {
			addQuad(z, line[i-1], line[i], hw)
		}
		for _, p := range line {
			addDisc(z, p, hw)
		}
	}
	z.Draw(img, b, image.NewUniform(col), image.Point{})
}

func fillDiscs(img *image.RGBA, centers []vector.Pt, r float64, col color.RGBA) {
	if len(centers) == 0 || r <= 0 {
		return
	}
	b := img.Bounds()
	z := xvec.NewRasterizer(b.Dx(), b.Dy())
	for _, c := range centers {
		addDisc(z, c, r)
	}
	z.Draw(img, b, image.NewUniform(col), image.Point{})
}

func addQuad(z *xvec.Rasterizer, a, b vector.Pt, hw float64) {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return
	}
	n := vector.Pt{X: -d.Y / l * hw, Y: d.X / l * hw}
	z.MoveTo(float32(a.X+n.X), float32(a.Y+n.Y))
	z.LineTo(float32(b.X+n.X), float32(b.Y+n.Y))
	z.LineTo(float32(b.X-n.X), float32(b.Y-n.Y))
	z.LineTo(float32(a.X-n.X), float32(a.Y-n.Y))
	z.ClosePath()
}

// addDisc adds a polygonal disc wound the same way as addQuad.
func addDisc(z *xvec.Rasterizer, c vector.Pt, r float64) {
	for i := 0; i <= discSides; i++ {
		t := -2 * math.Pi * float64(i) / discSides
		x := float32(c.X + r*math.Cos(t))
		y := float32(c.Y + r*math.Sin(t))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}
