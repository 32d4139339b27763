/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBatchExport_WebPreset(t *testing.T) {
	h := sampleHandle(t)
	files, err := BatchExport(h, BatchOptions{Preset: PresetWeb})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	root := filepath.Dir(h.Path)
	checks := []string{
		filepath.Join(root, "exports", "web", "wave.svg"),
		filepath.Join(root, "exports", "web", "wave.png"),
	}
	if len(files) != len(checks) {
		t.Fatalf("written = %v", files)
	}
	for i, p := range checks {
		if files[i] != p {
			t.Fatalf("file %d = %s, want %s", i, files[i], p)
		}
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatchExport_PrintPreset(t *testing.T) {
	h := sampleHandle(t)
	out := t.TempDir()
	files, err := BatchExport(h, BatchOptions{Preset: PresetPrint, OutDir: out})
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	checks := []string{
		filepath.Join(out, "wave.pdf"),
		filepath.Join(out, "wave.png"),
	}
	for i, p := range checks {
		if files[i] != p {
			t.Fatalf("file %d = %s, want %s", i, files[i], p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
	}
}

func TestExportFile_UnknownExtension(t *testing.T) {
	h := sampleHandle(t)
	if _, err := ExportFile(h, "wave.bmp", Options{}, 0); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := BatchExport(h, BatchOptions{Formats: []string{"svg", "tiff"}}); err == nil {
		t.Fatalf("expected error for unknown batch format")
	}
}
