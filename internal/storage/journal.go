/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"beziered/internal/bezier"
	"beziered/internal/editor"
	applog "beziered/internal/log"
	"beziered/internal/version"

	// PostgreSQL through database/sql, registered as "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// JournalDirName stores the per-document journal next to the document.
	JournalDirName  = ".bze"
	JournalFileName = "journal.sqlite"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// journalSchemaVersion tracks the journal schema.
	// Bump this when you perform breaking schema changes and add migrations.
	journalSchemaVersion = 1
)

// JournalConfig selects the journal backend. An empty Driver means sqlite.
// DSN is only used for postgres.
type JournalConfig struct {
	Driver string
	DSN    string
}

// Entry is one journaled action.
type Entry struct {
	CurveID string
	Seq     int64
	TS      time.Time
	Action  editor.Action
}

// StateSnapshot is a full editor state stored at a sequence number.
type StateSnapshot struct {
	CurveID string
	Seq     int64
	TS      time.Time
	State   editor.EditableCurve
}

// Journal stores the actions applied to curves and periodic state snapshots.
type Journal struct {
	db       *sql.DB
	postgres bool
	log      *slog.Logger
}

// JournalPath returns the sqlite journal location for the document at docPath.
func JournalPath(docPath string) string {
	return filepath.Join(filepath.Dir(docPath), JournalDirName, JournalFileName)
}

// OpenJournal opens the journal for the document at docPath with the backend
// named by cfg.
func OpenJournal(ctx context.Context, docPath string, cfg JournalConfig) (*Journal, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLiteJournal(ctx, JournalPath(docPath))
	case DriverPostgres, "pgx", "postgresql":
		return OpenPostgresJournal(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
}

// OpenSQLiteJournal opens or creates the sqlite journal at path, enables WAL
// mode and ensures the schema exists.
func OpenSQLiteJournal(ctx context.Context, path string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	// Use a URI with a busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	j := &Journal{db: db, log: l}
	if err := j.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready")
	return j, nil
}

// OpenPostgresJournal connects to PostgreSQL through pgx and ensures the
// schema exists.
func OpenPostgresJournal(ctx context.Context, dsn string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("driver", DriverPostgres))
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres journal requires a DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	j := &Journal{db: db, postgres: true, log: l}
	if err := j.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return nil, err
	}
	return j, nil
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }

// Driver names the backend in use.
func (j *Journal) Driver() string {
	if j.postgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// bind rewrites ? placeholders to $n for postgres.
func (j *Journal) bind(q string) string {
	if !j.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY"
	if j.postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS actions (
			id       ` + serial + `,
			curve_id TEXT    NOT NULL,
			seq      BIGINT  NOT NULL,
			ts       BIGINT  NOT NULL,
			type     TEXT    NOT NULL,
			payload  TEXT    NOT NULL,
			UNIQUE(curve_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id       ` + serial + `,
			curve_id TEXT    NOT NULL,
			seq      BIGINT  NOT NULL,
			ts       BIGINT  NOT NULL,
			state    TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_curve_seq ON snapshots(curve_id, seq)`,
	}
	for _, q := range ddl {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := j.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := j.db.ExecContext(ctx, j.bind(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`), journalSchemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > journalSchemaVersion:
		return fmt.Errorf("journal schema %d is newer than supported %d", cur, journalSchemaVersion)
	default:
		if _, err := j.db.ExecContext(ctx, j.bind(`UPDATE version SET app=?, updated_at=? WHERE id=1`), appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SetMeta stores a key/value pair.
func (j *Journal) SetMeta(ctx context.Context, key, value string) error {
	q := `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := j.db.ExecContext(ctx, j.bind(q), key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Meta returns the value for key, or "" when unset.
func (j *Journal) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := j.db.QueryRowContext(ctx, j.bind(`SELECT value FROM meta WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, nil
}

// Append stores one action. Sequence numbers are unique per curve.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e.Action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	q := `INSERT INTO actions(curve_id, seq, ts, type, payload) VALUES (?, ?, ?, ?, ?)`
	if _, err := j.db.ExecContext(ctx, j.bind(q), e.CurveID, e.Seq, e.TS.UnixNano(), string(e.Action.Type), string(payload)); err != nil {
		return fmt.Errorf("append action %d: %w", e.Seq, err)
	}
	return nil
}

// List returns the actions of curveID with seq > afterSeq in order. limit <= 0
// means all.
func (j *Journal) List(ctx context.Context, curveID string, afterSeq int64, limit int) ([]Entry, error) {
	q := `SELECT seq, ts, payload FROM actions WHERE curve_id = ? AND seq > ? ORDER BY seq`
	args := []any{curveID, afterSeq}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, j.bind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var (
			seq, ts int64
			payload string
		)
		if err := rows.Scan(&seq, &ts, &payload); err != nil {
			return nil, err
		}
		e := Entry{CurveID: curveID, Seq: seq, TS: time.Unix(0, ts).UTC()}
		if err := json.Unmarshal([]byte(payload), &e.Action); err != nil {
			return nil, fmt.Errorf("decode action %d: %w", seq, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Tail returns the last n actions of curveID in order.
func (j *Journal) Tail(ctx context.Context, curveID string, n int) ([]Entry, error) {
	var last int64
	q := `SELECT COALESCE(MAX(seq), 0) FROM actions WHERE curve_id = ?`
	if err := j.db.QueryRowContext(ctx, j.bind(q), curveID).Scan(&last); err != nil {
		return nil, fmt.Errorf("read last seq: %w", err)
	}
	after := last - int64(n)
	if n <= 0 || after < 0 {
		after = 0
	}
	return j.List(ctx, curveID, after, 0)
}

// SaveSnapshot stores the full state of curveID at seq.
func (j *Journal) SaveSnapshot(ctx context.Context, s StateSnapshot) error {
	blob, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	q := `INSERT INTO snapshots(curve_id, seq, ts, state) VALUES (?, ?, ?, ?)`
	if _, err := j.db.ExecContext(ctx, j.bind(q), s.CurveID, s.Seq, s.TS.UnixNano(), string(blob)); err != nil {
		return fmt.Errorf("save snapshot %d: %w", s.Seq, err)
	}
	return nil
}

// LatestSnapshot returns the snapshot with the highest seq for curveID. The
// bool is false when there is none.
func (j *Journal) LatestSnapshot(ctx context.Context, curveID string) (StateSnapshot, bool, error) {
	q := `SELECT seq, ts, state FROM snapshots WHERE curve_id = ? ORDER BY seq DESC, id DESC LIMIT 1`
	var (
		seq, ts int64
		blob    string
	)
	err := j.db.QueryRowContext(ctx, j.bind(q), curveID).Scan(&seq, &ts, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return StateSnapshot{}, false, nil
	}
	if err != nil {
		return StateSnapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	s := StateSnapshot{CurveID: curveID, Seq: seq, TS: time.Unix(0, ts).UTC()}
	if err := json.Unmarshal([]byte(blob), &s.State); err != nil {
		return StateSnapshot{}, false, fmt.Errorf("decode snapshot %d: %w", seq, err)
	}
	return s, true, nil
}

// PruneSnapshots keeps at most keepLast snapshots for the curve and deletes older ones.
func (j *Journal) PruneSnapshots(ctx context.Context, curveID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	q := `DELETE FROM snapshots WHERE curve_id = ? AND id NOT IN (
		SELECT id FROM (SELECT id FROM snapshots WHERE curve_id = ? ORDER BY seq DESC, id DESC LIMIT ?) keep
	)`
	res, err := j.db.ExecContext(ctx, j.bind(q), curveID, curveID, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Replay rebuilds the editor state of curveID: it starts from the latest
// snapshot (or from base when there is none) and reduces every later action.
// It returns the state and the last applied sequence number.
func (j *Journal) Replay(ctx context.Context, curveID string, base bezier.Curve) (editor.EditableCurve, int64, error) {
	state := editor.NewEditableCurve(base)
	var seq int64
	snap, ok, err := j.LatestSnapshot(ctx, curveID)
	if err != nil {
		return state, 0, err
	}
	if ok {
		state, seq = snap.State, snap.Seq
	}
	entries, err := j.List(ctx, curveID, seq, 0)
	if err != nil {
		return state, seq, err
	}
	for _, e := range entries {
		state = editor.Reduce(state, e.Action)
		seq = e.Seq
	}
	applog.WithOperation(applog.WithComponent("storage"), "journal_replay").DebugContext(ctx, "journal replayed",
		slog.Bool("from_snapshot", ok), slog.Int("actions", len(entries)), slog.Int64("seq", seq))
	return state, seq, nil
}

// Reset deletes all actions and snapshots of curveID.
func (j *Journal) Reset(ctx context.Context, curveID string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{`DELETE FROM actions WHERE curve_id = ?`, `DELETE FROM snapshots WHERE curve_id = ?`} {
		if _, err := tx.ExecContext(ctx, j.bind(q), curveID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset journal: %w", err)
		}
	}
	return tx.Commit()
}

// DetectAndRebuildJournal checks the sqlite journal at path and, when it is
// unreadable or corrupt, moves it to a timestamped backup so the next open
// starts a fresh journal. It returns true when the journal was replaced.
func DetectAndRebuildJournal(ctx context.Context, path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	needs := false
	j, err := OpenSQLiteJournal(ctx, path)
	if err != nil {
		needs = true
	} else {
		var chk string
		if err := j.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
			needs = true
		}
		_ = j.Close()
	}
	if !needs {
		return false, nil
	}
	backupJournalFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("remove corrupt journal: %w", err)
		}
	}
	nj, err := OpenSQLiteJournal(ctx, path)
	if err != nil {
		return false, fmt.Errorf("recreate journal: %w", err)
	}
	return true, nj.Close()
}

// backupJournalFile copies the journal into a timestamped backup in .bze/backups.
func backupJournalFile(path string) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	bak := filepath.Join(bdir, backupName(path, time.Now()))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// Recorder journals editor actions. Every SnapshotEvery recorded actions a
// full state snapshot is stored as well so Replay stays short.
type Recorder struct {
	J             *Journal
	Ctx           context.Context
	SnapshotEvery int64
	Now           func() time.Time
}

// NewRecorder returns a recorder writing to j with a snapshot every 50 actions.
func NewRecorder(ctx context.Context, j *Journal) *Recorder {
	return &Recorder{J: j, Ctx: ctx, SnapshotEvery: 50, Now: time.Now}
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Recorder) ctx() context.Context {
	if r.Ctx == nil {
		return context.Background()
	}
	return r.Ctx
}

// Record implements editor.Recorder.
func (r *Recorder) Record(curveID string, seq int64, a editor.Action, next editor.EditableCurve) error {
	ts := r.now()
	if err := r.J.Append(r.ctx(), Entry{CurveID: curveID, Seq: seq, TS: ts, Action: a}); err != nil {
		return err
	}
	if r.SnapshotEvery > 0 && seq%r.SnapshotEvery == 0 {
		return r.J.SaveSnapshot(r.ctx(), StateSnapshot{CurveID: curveID, Seq: seq, TS: ts, State: next})
	}
	return nil
}

// Checkpoint implements editor.Checkpointer: undo and redo change the state
// without an action, so the state itself is stored.
func (r *Recorder) Checkpoint(curveID string, seq int64, state editor.EditableCurve) error {
	return r.J.SaveSnapshot(r.ctx(), StateSnapshot{CurveID: curveID, Seq: seq, TS: r.now(), State: state})
}
