/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"beziered/internal/export"
	applog "beziered/internal/log"
	"beziered/internal/storage"
	"beziered/internal/undo"
	"beziered/internal/vector"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type HistoryConfig struct {
	MaxBytes      int `yaml:"max_bytes"`
	MaxPerCurve   int `yaml:"max_per_curve"`
	MinIntervalMs int `yaml:"min_interval_ms"`
}

type JournalConfig struct {
	Enabled       *bool  `yaml:"enabled,omitempty"`
	Driver        string `yaml:"driver"` // "sqlite" | "postgres"
	DSN           string `yaml:"dsn"`
	SnapshotEvery int64  `yaml:"snapshot_every"`
	KeepSnapshots int    `yaml:"keep_snapshots"`
}

type ExportConfig struct {
	DPI          int     `yaml:"dpi"`
	StrokeWidth  float64 `yaml:"stroke_width"`
	StrokeColor  string  `yaml:"stroke_color"`
	HandleColor  string  `yaml:"handle_color"`
	VertexColor  string  `yaml:"vertex_color"`
	ShowHandles  bool    `yaml:"show_handles"`
	ShowVertices bool    `yaml:"show_vertices"`
	Margin       float64 `yaml:"margin"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Logging       LoggingConfig `yaml:"logging"`
	History       HistoryConfig `yaml:"history"`
	Journal       JournalConfig `yaml:"journal"`
	Export        ExportConfig  `yaml:"export"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		History:       HistoryConfig{MaxBytes: 16 << 20, MaxPerCurve: 200, MinIntervalMs: 250},
		Journal:       JournalConfig{Driver: storage.DriverSQLite, SnapshotEvery: 50, KeepSnapshots: 5},
		Export:        ExportConfig{DPI: 144, StrokeWidth: 2, StrokeColor: "#333333", HandleColor: "#888888", VertexColor: "#1f6fd1", Margin: 16},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile = "BZE_CONFIG"

	EnvJournalDriver      = "BZE_JOURNAL_DRIVER"
	EnvJournalDSN         = "BZE_JOURNAL_DSN"
	EnvJournalEnabled     = "BZE_JOURNAL"
	EnvHistoryMaxBytes    = "BZE_HISTORY_MAX_BYTES"
	EnvHistoryMinInterval = "BZE_HISTORY_MIN_INTERVAL_MS"
	EnvExportDPI          = "BZE_EXPORT_DPI"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "BZE_LOG_LEVEL"
	EnvLogFormat = "BZE_LOG_FORMAT"
	EnvLogSource = "BZE_LOG_SOURCE"
	EnvLogFile   = "BZE_LOG_FILE"
)

// ConfigPath returns the per-user config file path. BZE_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Beziered")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Beziered")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "beziered")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "beziered")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A malformed file is reported together with the
// defaults so callers can continue.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var ferr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			ferr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, ferr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// history
	if src.History.MaxBytes != 0 {
		dst.History.MaxBytes = src.History.MaxBytes
	}
	if src.History.MaxPerCurve != 0 {
		dst.History.MaxPerCurve = src.History.MaxPerCurve
	}
	if src.History.MinIntervalMs != 0 {
		dst.History.MinIntervalMs = src.History.MinIntervalMs
	}
	// journal
	if src.Journal.Enabled != nil {
		on := *src.Journal.Enabled
		dst.Journal.Enabled = &on
	}
	if strings.TrimSpace(src.Journal.Driver) != "" {
		dst.Journal.Driver = strings.ToLower(strings.TrimSpace(src.Journal.Driver))
	}
	if strings.TrimSpace(src.Journal.DSN) != "" {
		dst.Journal.DSN = strings.TrimSpace(src.Journal.DSN)
	}
	if src.Journal.SnapshotEvery != 0 {
		dst.Journal.SnapshotEvery = src.Journal.SnapshotEvery
	}
	if src.Journal.KeepSnapshots != 0 {
		dst.Journal.KeepSnapshots = src.Journal.KeepSnapshots
	}
	// export
	if src.Export.DPI != 0 {
		dst.Export.DPI = src.Export.DPI
	}
	if src.Export.StrokeWidth != 0 {
		dst.Export.StrokeWidth = src.Export.StrokeWidth
	}
	if src.Export.StrokeColor != "" {
		dst.Export.StrokeColor = src.Export.StrokeColor
	}
	if src.Export.HandleColor != "" {
		dst.Export.HandleColor = src.Export.HandleColor
	}
	if src.Export.VertexColor != "" {
		dst.Export.VertexColor = src.Export.VertexColor
	}
	dst.Export.ShowHandles = src.Export.ShowHandles
	dst.Export.ShowVertices = src.Export.ShowVertices
	if src.Export.Margin != 0 {
		dst.Export.Margin = src.Export.Margin
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvJournalDriver)); v != "" {
		cfg.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDSN)); v != "" {
		cfg.Journal.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalEnabled)); v != "" {
		on := truthy(v)
		cfg.Journal.Enabled = &on
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMaxBytes)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMinInterval)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.MinIntervalMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDPI)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.DPI = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"journal.driver":          EnvJournalDriver,
		"journal.dsn":             EnvJournalDSN,
		"journal.enabled":         EnvJournalEnabled,
		"history.max_bytes":       EnvHistoryMaxBytes,
		"history.min_interval_ms": EnvHistoryMinInterval,
		"export.dpi":              EnvExportDPI,
		"logging.level":           EnvLogLevel,
		"logging.format":          EnvLogFormat,
		"logging.source":          EnvLogSource,
		"logging.file":            EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// LogOptions converts the logging section for applog.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// UndoConfig converts the history section for undo.NewManager.
func (h HistoryConfig) UndoConfig() undo.Config {
	return undo.Config{
		MaxBytes:    h.MaxBytes,
		MaxPerKey:   h.MaxPerCurve,
		MinInterval: time.Duration(h.MinIntervalMs) * time.Millisecond,
	}
}

// On reports whether actions should be journaled.
func (j JournalConfig) On() bool { return j.Enabled == nil || *j.Enabled }

// StorageConfig converts the journal section for storage.OpenJournal. A
// postgres DSN without a password gets the one stored in the OS keyring.
func (j JournalConfig) StorageConfig() storage.JournalConfig {
	jc := storage.JournalConfig{Driver: j.Driver, DSN: j.DSN}
	if j.Driver != storage.DriverPostgres || j.DSN == "" {
		return jc
	}
	pw, err := JournalPassword()
	if err != nil {
		applog.WithComponent("config").Warn("keyring unavailable, using DSN as configured", slog.Any("err", err))
		return jc
	}
	jc.DSN = withPassword(j.DSN, pw)
	return jc
}

// Options converts the export section. Invalid colors are reported.
func (e ExportConfig) Options() (export.Options, error) {
	style := vector.DefaultStyle()
	if e.StrokeWidth > 0 {
		style.Curve.Width = e.StrokeWidth
	}
	for _, c := range []struct {
		hex string
		dst *vector.Color
	}{
		{e.StrokeColor, &style.Curve.Color},
		{e.HandleColor, &style.Handles.Color},
		{e.VertexColor, &style.Vertex},
	} {
		if c.hex == "" {
			continue
		}
		col, err := vector.ParseHex(c.hex)
		if err != nil {
			return export.Options{}, fmt.Errorf("export config: %w", err)
		}
		*c.dst = col
	}
	return export.Options{
		Style:        style,
		ShowHandles:  e.ShowHandles,
		ShowVertices: e.ShowVertices,
		Margin:       e.Margin,
	}, nil
}
