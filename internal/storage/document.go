/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"beziered/internal/bezier"
	applog "beziered/internal/log"
)

const (
	BackupsDirName = "backups"
	// DocumentVersion is the format version written by Save.
	DocumentVersion = 1

	backupStamp = "20060102-150405.000"
)

// Metadata is free-form bookkeeping stored next to the curve.
type Metadata struct {
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Notes    string    `json:"notes,omitempty"`
}

// Document is the on-disk form of one curve.
type Document struct {
	Name     string       `json:"name"`
	Version  int          `json:"version"`
	Metadata Metadata     `json:"metadata"`
	Points   bezier.Curve `json:"points"`
}

// DocumentHandle keeps track of a document loaded from or saved to Path.
// Restored is set when Open had to fall back to a backup.
type DocumentHandle struct {
	Path     string
	Doc      Document
	Restored string
}

// ID returns the curve id used for history and the journal: the file name
// without extensions.
func (h *DocumentHandle) ID() string {
	base := filepath.Base(h.Path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// Create writes a new document at path. It fails when the file already exists.
func Create(path string, doc Document) (*DocumentHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("document path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("document %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	if doc.Metadata.Created.IsZero() {
		doc.Metadata.Created = time.Now().UTC()
	}
	h := &DocumentHandle{Path: path, Doc: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads the document at path. If the file cannot be read, parsed or
// validated, the latest backup is used instead.
func Open(path string) (*DocumentHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	doc, err := readDocument(path)
	if err == nil {
		return &DocumentHandle{Path: path, Doc: *doc}, nil
	}
	bak, bdoc, berr := openFromLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
	}
	l.Warn("document restored from backup", slog.String("backup", bak), slog.Any("err", err))
	return &DocumentHandle{Path: path, Doc: *bdoc, Restored: bak}, nil
}

func readDocument(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeDocument(b)
}

func decodeDocument(b []byte) (*Document, error) {
	if err := ValidateDocument(b); err != nil {
		return nil, err
	}
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if d.Version > DocumentVersion {
		return nil, fmt.Errorf("document version %d is newer than supported %d", d.Version, DocumentVersion)
	}
	return &d, nil
}

func encodeDocument(doc Document) ([]byte, error) {
	if doc.Points == nil {
		doc.Points = bezier.Curve{}
	}
	doc.Version = DocumentVersion
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes h.Doc to h.Path with transactional semantics and a timestamped
// backup of the previous file (if present).
func Save(h *DocumentHandle) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if h.Path == "" {
		return errors.New("invalid DocumentHandle: missing path")
	}
	h.Doc.Metadata.Modified = time.Now().UTC()
	data, err := encodeDocument(h.Doc)
	if err != nil {
		return err
	}
	h.Doc.Version = DocumentVersion

	dir := filepath.Dir(h.Path)
	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current document exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(h.Path); statErr == nil {
		bpath := filepath.Join(bdir, backupName(h.Path, time.Now()))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	base := filepath.Base(h.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	h.Restored = ""
	return nil
}

// SaveAs writes the document to newPath and updates the handle.
func SaveAs(h *DocumentHandle, newPath string) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	h.Path = newPath
	return Save(h)
}

// AutosaveCrashSnapshot writes the in-memory document next to the backups
// without touching the document file. It returns the snapshot path.
func AutosaveCrashSnapshot(h *DocumentHandle) (string, error) {
	if h == nil {
		return "", errors.New("nil DocumentHandle")
	}
	bdir := filepath.Join(filepath.Dir(h.Path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	doc := h.Doc
	if doc.Points == nil {
		doc.Points = bezier.Curve{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.Path), time.Now().Format(backupStamp)))
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

func backupName(docPath string, ts time.Time) string {
	return fmt.Sprintf("%s.%s.bak", filepath.Base(docPath), ts.Format(backupStamp))
}

// Backups lists the backup files of the document at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries the backups newest first and returns the first
// one that decodes.
func openFromLatestBackup(path string) (string, *Document, error) {
	candidates, err := Backups(path)
	if err != nil {
		return "", nil, err
	}
	if len(candidates) == 0 {
		return "", nil, errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		d, err := readDocument(candidates[i])
		if err != nil {
			lastErr = err
			continue
		}
		return candidates[i], d, nil
	}
	return "", nil, fmt.Errorf("no usable backup: %w", lastErr)
}
