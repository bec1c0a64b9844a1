package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/metrics"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	ticks       INTEGER NOT NULL,
	skaters     INTEGER NOT NULL,
	attempts    INTEGER NOT NULL,
	landed      INTEGER NOT NULL,
	retries     INTEGER NOT NULL,
	no_attempts INTEGER NOT NULL,
	points      INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	tick        INTEGER NOT NULL,
	skater_id   TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	no_attempt  INTEGER NOT NULL,
	piece       TEXT NOT NULL,
	coordinate  TEXT NOT NULL,
	type        TEXT NOT NULL,
	core        TEXT NOT NULL,
	modifiers   TEXT NOT NULL,
	trick_name  TEXT NOT NULL,
	combo_key   TEXT NOT NULL,
	switch      INTEGER NOT NULL,
	attempt     INTEGER NOT NULL,
	landed      INTEGER NOT NULL,
	control     INTEGER NOT NULL,
	steeze      INTEGER NOT NULL,
	points      INTEGER NOT NULL,
	retry       INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS attempts_skater ON attempts(skater_id);
`

// Archive stores ended sessions and their attempt logs in SQLite.
type Archive struct {
	db      *sql.DB
	metrics *metrics.Manager
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*Archive)

// WithArchiveMetrics sets the metrics manager writes are reported to.
func WithArchiveMetrics(m *metrics.Manager) ArchiveOption {
	return func(a *Archive) {
		if m != nil {
			a.metrics = m
		}
	}
}

// OpenArchive opens or creates the archive at path.
func OpenArchive(path string, opts ...ArchiveOption) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: archive path is required", ErrArchive)
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrArchive, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", ErrArchive, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrArchive, err)
	}
	a := &Archive{db: db, metrics: metrics.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Close releases the connection.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Save writes a summary and its attempt log in one transaction. Saving the
// same session id again replaces the earlier copy.
func (a *Archive) Save(ctx context.Context, sum types.Summary, log []model.Attempt) (err error) {
	start := time.Now()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrArchive, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sum.ID); err != nil {
		return fmt.Errorf("%w: replace session: %w", ErrArchive, err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions (id, kind, seed, ticks, skaters, attempts, landed, retries, no_attempts, points, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Kind, int64(sum.Seed), sum.Ticks, sum.Skaters, sum.Attempts, sum.Landed,
		sum.Retries, sum.NoAttempts, sum.Points, sum.StartedAt.UTC().UnixMilli(), sum.EndedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert session: %w", ErrArchive, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO attempts (session_id, seq, tick, skater_id, target_id, no_attempt, piece, coordinate, type, core,
	modifiers, trick_name, combo_key, switch, attempt, landed, control, steeze, points, retry)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare attempts: %w", ErrArchive, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, at := range log {
		var mods []byte
		if mods, err = json.Marshal(at.Modifiers); err != nil {
			return fmt.Errorf("%w: encode modifiers: %w", ErrArchive, err)
		}
		_, err = stmt.ExecContext(ctx,
			sum.ID, at.Seq, at.Tick, at.SkaterID, at.TargetID, at.NoAttempt, at.Piece, at.Coordinate,
			string(at.Type), at.Core, string(mods), at.TrickName, at.ComboKey, at.Switch, at.Attempt,
			at.Landed, at.Control, at.Steeze, at.Points, at.Retry,
		)
		if err != nil {
			return fmt.Errorf("%w: insert attempt %d: %w", ErrArchive, at.Seq, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrArchive, err)
	}
	a.metrics.ArchiveWrite(time.Since(start))
	return nil
}

// Summary returns one archived session.
func (a *Archive) Summary(ctx context.Context, id string) (types.Summary, error) {
	row := a.db.QueryRowContext(ctx, `
SELECT id, kind, seed, ticks, skaters, attempts, landed, retries, no_attempts, points, started_at, ended_at
FROM sessions WHERE id = ?`, id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Summary{}, ErrSessionNotFound
	}
	if err != nil {
		return types.Summary{}, fmt.Errorf("%w: read session: %w", ErrArchive, err)
	}
	return sum, nil
}

// Sessions lists archived sessions, most recently ended first.
func (a *Archive) Sessions(ctx context.Context, limit int) ([]types.Summary, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := a.db.QueryContext(ctx, `
SELECT id, kind, seed, ticks, skaters, attempts, landed, retries, no_attempts, points, started_at, ended_at
FROM sessions ORDER BY ended_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", ErrArchive, err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan session: %w", ErrArchive, err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", ErrArchive, err)
	}
	return out, nil
}

// Attempts returns the attempt log of an archived session in log order.
func (a *Archive) Attempts(ctx context.Context, sessionID string) ([]model.Attempt, error) {
	rows, err := a.db.QueryContext(ctx, `
SELECT seq, tick, skater_id, target_id, no_attempt, piece, coordinate, type, core, modifiers,
	trick_name, combo_key, switch, attempt, landed, control, steeze, points, retry
FROM attempts WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts: %w", ErrArchive, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Attempt
	for rows.Next() {
		var (
			at   model.Attempt
			typ  string
			mods string
		)
		err := rows.Scan(&at.Seq, &at.Tick, &at.SkaterID, &at.TargetID, &at.NoAttempt, &at.Piece,
			&at.Coordinate, &typ, &at.Core, &mods, &at.TrickName, &at.ComboKey, &at.Switch,
			&at.Attempt, &at.Landed, &at.Control, &at.Steeze, &at.Points, &at.Retry)
		if err != nil {
			return nil, fmt.Errorf("%w: scan attempt: %w", ErrArchive, err)
		}
		at.Type = catalog.TrickType(typ)
		if err := json.Unmarshal([]byte(mods), &at.Modifiers); err != nil {
			return nil, fmt.Errorf("%w: decode modifiers: %w", ErrArchive, err)
		}
		out = append(out, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list attempts: %w", ErrArchive, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (types.Summary, error) {
	var (
		sum            types.Summary
		seed           int64
		started, ended int64
	)
	err := sc.Scan(&sum.ID, &sum.Kind, &seed, &sum.Ticks, &sum.Skaters, &sum.Attempts, &sum.Landed,
		&sum.Retries, &sum.NoAttempts, &sum.Points, &started, &ended)
	if err != nil {
		return types.Summary{}, err
	}
	sum.Seed = uint64(seed)
	sum.StartedAt = time.UnixMilli(started).UTC()
	sum.EndedAt = time.UnixMilli(ended).UTC()
	return sum, nil
}
