package tracking

import (
	"context"
	"database/sql"
	"time"

	"github.com/bobg/sqlutil"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS comment_tracking (
  identity TEXT NOT NULL PRIMARY KEY,
  current_rank TEXT NOT NULL,
  previous_rank TEXT,
  last_checked_at TEXT NOT NULL,
  last_reply_at TEXT
);
`

// SQLiteStore is the sqlite-backed Store.
type SQLiteStore struct {
	db    *sql.DB
	locks *keyedMutex
	now   func() time.Time
}

var _ Store = &SQLiteStore{}

// Open opens (creating if needed) the tracking database at conn.
func Open(ctx context.Context, conn string) (*SQLiteStore, func() error, error) {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", conn)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "instantiating schema")
	}
	store := &SQLiteStore{
		db:    db,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	return store, db.Close, nil
}

func (s *SQLiteStore) GetPrevious(ctx context.Context, identity string) (string, error) {
	const q = `SELECT current_rank FROM comment_tracking WHERE identity = $1`

	var current string
	err := sqlutil.QueryRowContext(ctx, s.db, q, identity).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading rank for %s", identity)
	}
	return current, nil
}

func (s *SQLiteStore) HasRankChanged(ctx context.Context, identity string, newRank string) (bool, error) {
	current, err := s.GetPrevious(ctx, identity)
	if err != nil {
		return false, err
	}
	// First observation is never a change.
	if current == "" {
		return false, nil
	}
	return current != newRank, nil
}

func (s *SQLiteStore) Update(ctx context.Context, identity string, newRank string, replyAt time.Time) error {
	s.locks.Lock(identity)
	defer s.locks.Unlock(identity)

	const get = `SELECT current_rank, last_reply_at FROM comment_tracking WHERE identity = $1`

	var (
		previous  sql.NullString
		lastReply sql.NullString
	)
	err := sqlutil.QueryRowContext(ctx, s.db, get, identity).Scan(&previous.String, &lastReply)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Never tracked: previous rank stays empty.
	case err != nil:
		return errors.Wrapf(err, "reading record for %s", identity)
	default:
		previous.Valid = true
	}

	// A scan with no reply evidence must not clear history.
	reply := lastReply
	if !replyAt.IsZero() {
		reply = sql.NullString{String: replyAt.UTC().Format(time.RFC3339), Valid: true}
	}

	const put = `
		INSERT INTO comment_tracking (identity, current_rank, previous_rank, last_checked_at, last_reply_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity) DO UPDATE SET
		  current_rank = $2, previous_rank = $3, last_checked_at = $4, last_reply_at = $5`

	checked := s.now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, put, identity, newRank, previous, checked, reply)
	return errors.Wrapf(err, "updating record for %s", identity)
}

// Record returns the full stored row for an identity, or ErrNotTracked.
func (s *SQLiteStore) Record(ctx context.Context, identity string) (*Record, error) {
	const q = `SELECT current_rank, previous_rank, last_checked_at, last_reply_at FROM comment_tracking WHERE identity = $1`

	var (
		current, checked    string
		previous, lastReply sql.NullString
	)
	err := sqlutil.QueryRowContext(ctx, s.db, q, identity).Scan(&current, &previous, &checked, &lastReply)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotTracked
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading record for %s", identity)
	}

	rec := &Record{
		Identity:     identity,
		CurrentRank:  current,
		PreviousRank: previous.String,
	}
	if rec.LastCheckedAt, err = time.Parse(time.RFC3339, checked); err != nil {
		return nil, errors.Wrapf(err, "parsing checked timestamp for %s", identity)
	}
	if lastReply.Valid {
		if rec.LastReplyAt, err = time.Parse(time.RFC3339, lastReply.String); err != nil {
			return nil, errors.Wrapf(err, "parsing reply timestamp for %s", identity)
		}
	}
	return rec, nil
}

// ErrNotTracked indicates an identity with no stored history.
var ErrNotTracked = errors.New("identity not tracked")
