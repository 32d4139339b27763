/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"beziered/internal/vector"
)

// isolate points the config file at a temp dir so the user's file is never read.
func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, p)
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.History.MinIntervalMs != 250 || cfg.Journal.Driver != "sqlite" || !cfg.Journal.On() {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestLoadFileAndMalformedFile(t *testing.T) {
	p := isolate(t)
	data := []byte("history:\n  min_interval_ms: 40\njournal:\n  driver: Postgres\n  dsn: postgres://x\nexport:\n  show_handles: true\n")
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.History.MinIntervalMs != 40 || cfg.Journal.Driver != "postgres" || cfg.Journal.DSN != "postgres://x" {
		t.Fatalf("file values not merged: %#v", cfg)
	}
	if !cfg.Journal.On() {
		t.Fatalf("journal disabled by a section that does not mention enabled")
	}
	if !cfg.Export.ShowHandles || cfg.Export.DPI != 144 {
		t.Fatalf("export merge wrong: %#v", cfg.Export)
	}

	if err := os.WriteFile(p, []byte("history: [\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = Load()
	if err == nil {
		t.Fatalf("expected parse error for malformed file")
	}
	if cfg.History.MinIntervalMs != 250 {
		t.Fatalf("defaults not returned with parse error: %#v", cfg.History)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	off := false
	cfg.Journal.Enabled = &off
	cfg.Export.StrokeColor = "#ff0000"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Journal.On() || got.Export.StrokeColor != "#ff0000" {
		t.Fatalf("saved values not loaded: %#v", got)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/bze.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/bze.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/x.log")
	t.Setenv(EnvJournalDriver, "POSTGRES")
	t.Setenv(EnvJournalDSN, "postgres://db")
	t.Setenv(EnvJournalEnabled, "off")
	t.Setenv(EnvHistoryMinInterval, "10")
	t.Setenv(EnvExportDPI, "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/x.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if cfg.Journal.Driver != "postgres" || cfg.Journal.DSN != "postgres://db" || cfg.Journal.On() {
		t.Fatalf("env overrides not applied to journal: %#v", cfg.Journal)
	}
	if cfg.History.MinIntervalMs != 10 {
		t.Fatalf("min interval = %d", cfg.History.MinIntervalMs)
	}
	if cfg.Export.DPI != 144 {
		t.Fatalf("invalid dpi override applied: %d", cfg.Export.DPI)
	}
	if env, ok := EnvOverrideFor("journal.dsn"); !ok || env != EnvJournalDSN {
		t.Fatalf("EnvOverrideFor(journal.dsn) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("export.margin"); ok {
		t.Fatalf("export.margin has no env override")
	}
}

func TestConversions(t *testing.T) {
	cfg := Defaults()
	if got := cfg.History.UndoConfig(); got.MinInterval != 250*time.Millisecond || got.MaxPerKey != 200 {
		t.Fatalf("UndoConfig() = %#v", got)
	}
	if got := cfg.Logging.LogOptions(); got.Level != "info" || got.Format != "console" {
		t.Fatalf("LogOptions() = %#v", got)
	}
	if got := cfg.Journal.StorageConfig(); got.Driver != "sqlite" {
		t.Fatalf("StorageConfig() = %#v", got)
	}

	cfg.Export.StrokeColor = "#ff8000"
	cfg.Export.StrokeWidth = 3
	o, err := cfg.Export.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	if o.Style.Curve.Color != (vector.Color{R: 0xff, G: 0x80, A: 0xff}) || o.Style.Curve.Width != 3 || o.Margin != 16 {
		t.Fatalf("Options() = %#v", o)
	}
	cfg.Export.VertexColor = "blue"
	if _, err := cfg.Export.Options(); err == nil {
		t.Fatalf("expected error for invalid color")
	}
}
