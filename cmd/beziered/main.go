/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"beziered/internal/bezier"
	"beziered/internal/config"
	"beziered/internal/crash"
	"beziered/internal/editor"
	"beziered/internal/export"
	"beziered/internal/importer"
	applog "beziered/internal/log"
	"beziered/internal/storage"
	"beziered/internal/undo"
	"beziered/internal/version"
)

func usage() {
	fmt.Println("beziered - piecewise cubic bezier curve editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  beziered version|-v|--version            Show version")
	fmt.Println("  beziered init <doc> [x y ...]             Create a curve document from vertex coordinates")
	fmt.Println("  beziered show <doc>                       Print vertices, handles and path data")
	fmt.Println("  beziered apply <doc> <script.yaml>        Run an action script through the editor and save")
	fmt.Println("  beziered export <doc> <out.svg|.pdf|.png>  Export the curve")
	fmt.Println("  beziered batch <doc> <web|print|proof>    Export with a preset")
	fmt.Println("  beziered import <in.svg> <doc>            Create a document from the first SVG path")
	fmt.Println("  beziered history <doc> [limit]            List journaled actions")
	fmt.Println("  beziered journal-password set|clear       Store the postgres journal password (read from stdin) in the OS keyring")
}

// session is the state the crash handler may need.
type session struct {
	doc *storage.DocumentHandle
	ed  *editor.Editor
}

func (s *session) Document() *storage.DocumentHandle { return s.doc }

func (s *session) Live() bezier.Curve {
	if s.ed == nil {
		return s.doc.Doc.Points
	}
	return s.ed.Snapshot().Points
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(cfg.Logging.LogOptions())
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config ignored", slog.Any("err", cfgErr))
	}
	s := &session{}
	defer crash.Guard(s)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	ctx := context.Background()
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
		return
	case "init":
		need(args, 3, "init requires <doc>")
		err = cmdInit(s, args[2], args[3:])
	case "show":
		need(args, 3, "show requires <doc>")
		err = cmdShow(s, args[2])
	case "apply":
		need(args, 4, "apply requires <doc> and <script.yaml>")
		err = cmdApply(ctx, cfg, s, args[2], args[3])
	case "export":
		need(args, 4, "export requires <doc> and <out>")
		err = cmdExport(cfg, s, args[2], args[3])
	case "batch":
		need(args, 4, "batch requires <doc> and <preset>")
		err = cmdBatch(cfg, s, args[2], args[3])
	case "import":
		need(args, 4, "import requires <in.svg> and <doc>")
		err = cmdImport(s, args[2], args[3])
	case "history":
		need(args, 3, "history requires <doc>")
		limit := 20
		if len(args) > 3 {
			n, perr := strconv.Atoi(args[3])
			if perr != nil || n <= 0 {
				fmt.Println("limit must be a positive number")
				os.Exit(2)
			}
			limit = n
		}
		err = cmdHistory(ctx, cfg, args[2], limit)
	case "journal-password":
		need(args, 3, "journal-password requires set or clear")
		err = cmdJournalPassword(args[2], os.Stdin)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		l.Error(args[1]+" failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func need(args []string, n int, msg string) {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func cmdInit(s *session, path string, coords []string) error {
	if len(coords)%2 != 0 {
		return errors.New("vertex coordinates come in x y pairs")
	}
	var curve bezier.Curve
	for i := 0; i < len(coords); i += 2 {
		x, err := strconv.ParseFloat(coords[i], 64)
		if err != nil {
			return fmt.Errorf("vertex %d x: %w", i/2, err)
		}
		y, err := strconv.ParseFloat(coords[i+1], 64)
		if err != nil {
			return fmt.Errorf("vertex %d y: %w", i/2, err)
		}
		curve = append(curve, bezier.V(x, y))
	}
	path = absPath(path)
	h, err := storage.Create(path, storage.Document{Name: docName(path), Points: curve})
	if err != nil {
		return err
	}
	s.doc = h
	fmt.Printf("Created %s with %d vertices\n", path, len(curve))
	return nil
}

func docName(path string) string {
	h := storage.DocumentHandle{Path: path}
	return h.ID()
}

func openDoc(s *session, path string) (*storage.DocumentHandle, error) {
	h, err := storage.Open(absPath(path))
	if err != nil {
		return nil, err
	}
	s.doc = h
	if h.Restored != "" {
		fmt.Println("Note: document restored from backup", h.Restored)
	}
	return h, nil
}

func cmdShow(s *session, path string) error {
	h, err := openDoc(s, path)
	if err != nil {
		return err
	}
	fmt.Printf("Curve: %s (%d vertices)\n", h.Doc.Name, len(h.Doc.Points))
	for i, v := range h.Doc.Points {
		fmt.Printf("  %d: (%s, %s) %s\n", i, num(v.X), num(v.Y), describeControls(v.Control))
		for _, hd := range bezier.Handles(v) {
			fmt.Printf("       %-6s handle at (%s, %s)\n", hd.Polarity, num(hd.Pos.X), num(hd.Pos.Y))
		}
	}
	p := bezier.GeneratePath(h.Doc.Points)
	fmt.Println("Path:", p.String())
	return nil
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func describeControls(c bezier.Controls) string {
	arm := func(l *float64) string {
		if l == nil {
			return "-"
		}
		return num(*l)
	}
	switch cp := c.(type) {
	case bezier.SmoothControl:
		return fmt.Sprintf("smooth angle=%s before=%s after=%s", num(cp.Angle), arm(cp.Length), arm(cp.Length1))
	case bezier.CornerControl:
		side := func(p *bezier.ControlPoint) string {
			if p == nil {
				return "-"
			}
			return fmt.Sprintf("%s@%s", num(p.Length), num(p.Angle))
		}
		return fmt.Sprintf("corner before=%s after=%s", side(cp.Before), side(cp.After))
	default:
		return "no handles"
	}
}

func openJournal(ctx context.Context, cfg config.AppConfig, docPath string) (*storage.Journal, error) {
	jc := cfg.Journal.StorageConfig()
	if jc.Driver == "" || jc.Driver == storage.DriverSQLite {
		rebuilt, err := storage.DetectAndRebuildJournal(ctx, storage.JournalPath(docPath))
		if err != nil {
			return nil, err
		}
		if rebuilt {
			fmt.Println("Note: journal was corrupt and has been rebuilt; a backup was kept")
		}
	}
	return storage.OpenJournal(ctx, docPath, jc)
}

func sameCurve(a, b bezier.Curve) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	return aerr == nil && berr == nil && bytes.Equal(ab, bb)
}

func cmdApply(ctx context.Context, cfg config.AppConfig, s *session, path, script string) error {
	l := applog.WithOperation(applog.WithComponent("cli"), "apply")
	h, err := openDoc(s, path)
	if err != nil {
		return err
	}
	f, err := os.Open(script)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	actions, err := editor.LoadScript(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	ctx = applog.ContextWithCurve(applog.ContextWithDocument(ctx, h.Path), h.ID())

	opts := []editor.Option{
		editor.WithID(h.ID()),
		editor.WithHistory(undo.NewManager(cfg.History.UndoConfig())),
	}
	start := editor.NewEditableCurve(h.Doc.Points)
	var j *storage.Journal
	if cfg.Journal.On() {
		j, err = openJournal(ctx, cfg, h.Path)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
		rec := storage.NewRecorder(ctx, j)
		if cfg.Journal.SnapshotEvery > 0 {
			rec.SnapshotEvery = cfg.Journal.SnapshotEvery
		}
		replayed, seq, err := j.Replay(ctx, h.ID(), h.Doc.Points)
		if err != nil {
			return err
		}
		if sameCurve(replayed.Points, h.Doc.Points) {
			// resume an unfinished extension from the last session
			start = replayed
		} else {
			// the document changed outside the journal; record it as the new base
			seq++
			if err := rec.Checkpoint(h.ID(), seq, start); err != nil {
				return err
			}
			l.InfoContext(ctx, "journal rebased on document", slog.Int64("seq", seq))
		}
		opts = append(opts, editor.WithRecorder(rec), editor.WithSeq(seq))
	}

	ed := editor.NewFromState(start, opts...)
	s.ed = ed
	for _, a := range actions {
		ed.Apply(a)
	}
	final := ed.Snapshot()
	h.Doc.Points = final.Points
	if err := storage.Save(h); err != nil {
		return err
	}
	if j != nil && cfg.Journal.KeepSnapshots > 0 {
		if _, err := j.PruneSnapshots(ctx, h.ID(), cfg.Journal.KeepSnapshots); err != nil {
			l.WarnContext(ctx, "prune snapshots failed", slog.Any("err", err))
		}
	}
	fmt.Printf("Applied %d actions: %d vertices, state %s\n", len(actions), len(final.Points), final.State())
	return nil
}

func cmdExport(cfg config.AppConfig, s *session, path, out string) error {
	h, err := openDoc(s, path)
	if err != nil {
		return err
	}
	o, err := cfg.Export.Options()
	if err != nil {
		return err
	}
	written, err := export.ExportFile(h, absPath(out), o, cfg.Export.DPI)
	if err != nil {
		return err
	}
	fmt.Println("Exported", written)
	return nil
}

func cmdBatch(cfg config.AppConfig, s *session, path, preset string) error {
	h, err := openDoc(s, path)
	if err != nil {
		return err
	}
	o, err := cfg.Export.Options()
	if err != nil {
		return err
	}
	files, err := export.BatchExport(h, export.BatchOptions{Preset: export.PresetName(strings.ToLower(preset)), BaseOptions: o})
	for _, f := range files {
		fmt.Println("Exported", f)
	}
	return err
}

func cmdImport(s *session, in, path string) error {
	paths, err := importer.ImportFile(in)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%s contains no usable <path> element", in)
	}
	if len(paths) > 1 {
		fmt.Printf("Note: %d paths found, importing the first\n", len(paths))
	}
	path = absPath(path)
	name := paths[0].ID
	if name == "" {
		name = docName(path)
	}
	h, err := storage.Create(path, storage.Document{Name: name, Points: paths[0].Curve})
	if err != nil {
		return err
	}
	s.doc = h
	fmt.Printf("Imported %d vertices into %s\n", len(h.Doc.Points), path)
	return nil
}

func cmdHistory(ctx context.Context, cfg config.AppConfig, path string, limit int) error {
	path = absPath(path)
	h := storage.DocumentHandle{Path: path}
	j, err := openJournal(ctx, cfg, path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()
	entries, err := j.Tail(ctx, h.ID(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No journaled actions for", h.ID())
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%6d  %s  %s\n", e.Seq, e.TS.Local().Format("2006-01-02 15:04:05"), e.Action)
	}
	return nil
}

func cmdJournalPassword(op string, in io.Reader) error {
	switch op {
	case "clear":
		if err := config.SetJournalPassword(""); err != nil {
			return err
		}
		fmt.Println("Journal password removed")
		return nil
	case "set":
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		pw := strings.TrimRight(line, "\r\n")
		if pw == "" {
			return errors.New("empty password")
		}
		if err := config.SetJournalPassword(pw); err != nil {
			return err
		}
		fmt.Println("Journal password stored")
		return nil
	default:
		return fmt.Errorf("unknown journal-password operation %q", op)
	}
}
