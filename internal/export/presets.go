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
	"path/filepath"
	"strings"

	"beziered/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
	// PresetProof draws vertices and handle arms on top of the curve.
	PresetProof PresetName = "proof"
)

// BatchOptions controls a batch export of one document in several formats.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <doc dir>/exports/<preset>/.
//   - Files are named <doc id>.<format>.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // allowed: pdf, png, svg; empty means preset defaults
	DPIOverride int      // when > 0 overrides the preset DPI for png/svg
	ShowHandles *bool    // when set, overrides the preset's default
	OutDir      string
	BaseOptions Options
}

// BatchExport runs exports according to the given preset and returns the
// written files.
func BatchExport(h *storage.DocumentHandle, opt BatchOptions) ([]string, error) {
	if h == nil {
		return nil, fmt.Errorf("document handle is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
		if baseOut == "" {
			baseOut = "batch"
		}
	}

	o := opt.BaseOptions
	o.ShowHandles = presetShowHandles(opt.Preset)
	if opt.ShowHandles != nil {
		o.ShowHandles = *opt.ShowHandles
	}
	o.ShowVertices = o.ShowVertices || o.ShowHandles
	dpi := presetDPI(opt.Preset)
	if opt.DPIOverride > 0 {
		dpi = opt.DPIOverride
	}

	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(baseOut, h.ID()+"."+f)
		p, err := exportFormat(h, f, out, o, dpi)
		if err != nil {
			return written, fmt.Errorf("%s: %w", f, err)
		}
		written = append(written, p)
	}
	return written, nil
}

// ExportFile picks the exporter from the extension of outPath.
func ExportFile(h *storage.DocumentHandle, outPath string, o Options, dpi int) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
	return exportFormat(h, ext, outPath, o, dpi)
}

func exportFormat(h *storage.DocumentHandle, format, out string, o Options, dpi int) (string, error) {
	switch format {
	case "pdf":
		return ExportPDF(h, out, PDFOptions{Options: o})
	case "png":
		return ExportPNG(h, out, PNGOptions{Options: o, DPI: dpi, Caption: caption(h)})
	case "svg":
		return ExportSVG(h, out, SVGOptions{Options: o, DPI: dpi})
	default:
		return "", fmt.Errorf("unknown format: %q", format)
	}
}

func caption(h *storage.DocumentHandle) string {
	return fmt.Sprintf("%s - %d vertices", title(h), len(h.Doc.Points))
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"svg", "png"}
	case PresetPrint:
		return []string{"pdf", "png"}
	case PresetProof:
		return []string{"svg", "png"}
	default:
		return []string{"svg"}
	}
}

func presetShowHandles(p PresetName) bool {
	return p == PresetProof
}

func presetDPI(p PresetName) int {
	switch p {
	case PresetWeb:
		return 96
	case PresetPrint:
		return 300
	default:
		return defaultPNGDPI
	}
}
