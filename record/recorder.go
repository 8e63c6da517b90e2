// Package record stores the accesses and results of a replay in a SQLite
// database.
package record

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/driver"
)

const defaultBatchSize = 100000

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	trace TEXT,
	cache_size_kib INTEGER,
	block_size INTEGER,
	associativity INTEGER,
	policy TEXT,
	started_at TEXT,
	accesses INTEGER,
	reads INTEGER,
	writes INTEGER,
	hits INTEGER,
	misses INTEGER,
	misses_with_writeback INTEGER
);
CREATE TABLE IF NOT EXISTS accesses (
	run_id TEXT,
	seq INTEGER,
	kind TEXT,
	address INTEGER,
	set_index INTEGER,
	way INTEGER,
	tag INTEGER,
	result TEXT,
	evicted_address INTEGER
);`

// Access is one row of the accesses table.
type Access struct {
	RunID          string
	Sequence       uint64
	Kind           string
	Address        uint64
	SetIndex       int
	Way            int
	Tag            uint64
	Result         string
	EvictedAddress sql.NullInt64
}

// Recorder is a driver.Observer that writes every access and the final
// counters into a SQLite database. Rows are buffered and written in
// batches inside a transaction.
type Recorder struct {
	*sql.DB

	runID     string
	filename  string
	trace     string
	config    cache.Config
	batchSize int
	pending   []Access
	err       error
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithBatchSize sets how many access rows are buffered before a flush.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// New creates a database at path and registers the run. An empty path
// picks a unique name in the working directory. The ".sqlite3" suffix is
// appended when missing. New refuses to overwrite an existing file.
func New(path, tracePath string, config cache.Config, opts ...Option) (*Recorder, error) {
	runID := xid.New().String()

	if path == "" {
		path = "cachesim_" + runID
	}

	if !strings.HasSuffix(path, ".sqlite3") {
		path += ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &Recorder{
		DB:        db,
		runID:     runID,
		filename:  path,
		trace:     tracePath,
		config:    config,
		batchSize: defaultBatchSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

func (r *Recorder) init() error {
	if _, err := r.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	_, err := r.Exec(
		`INSERT INTO runs (run_id, trace, cache_size_kib, block_size,
			associativity, policy, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, r.trace, r.config.SizeKiB, r.config.BlockSize,
		r.config.Associativity, r.config.Policy.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to register run: %w", err)
	}

	return nil
}

// RunID returns the identifier of the recorded run.
func (r *Recorder) RunID() string {
	return r.runID
}

// Filename returns the path of the database file.
func (r *Recorder) Filename() string {
	return r.filename
}

// Err returns the first error hit while writing, if any.
func (r *Recorder) Err() error {
	return r.err
}

// OnAccess implements driver.Observer.
func (r *Recorder) OnAccess(ev driver.Event) {
	row := Access{
		RunID:    r.runID,
		Sequence: ev.Sequence,
		Kind:     ev.Kind.String(),
		Address:  ev.Address,
		SetIndex: ev.Outcome.SetIndex,
		Way:      ev.Outcome.Way,
		Tag:      ev.Outcome.Tag,
		Result:   ev.Outcome.Result.String(),
	}

	if ev.Outcome.Evicted {
		row.EvictedAddress = sql.NullInt64{
			Int64: int64(ev.Outcome.EvictedAddress),
			Valid: true,
		}
	}

	r.pending = append(r.pending, row)
	if len(r.pending) >= r.batchSize {
		r.keep(r.Flush())
	}
}

// OnFinish implements driver.Observer.
func (r *Recorder) OnFinish(stats cache.Statistics) {
	r.keep(r.Flush())

	_, err := r.Exec(
		`UPDATE runs SET accesses = ?, reads = ?, writes = ?, hits = ?,
			misses = ?, misses_with_writeback = ?
		WHERE run_id = ?`,
		stats.Accesses, stats.Reads, stats.Writes, stats.Hits,
		stats.Misses, stats.MissesWithWriteback, r.runID)
	if err != nil {
		r.keep(fmt.Errorf("failed to update run: %w", err))
	}
}

// Flush writes all buffered rows in one transaction.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO accesses VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range r.pending {
		_, err := stmt.Exec(a.RunID, a.Sequence, a.Kind, int64(a.Address),
			a.SetIndex, a.Way, int64(a.Tag), a.Result, a.EvictedAddress)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert access %d: %w", a.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.pending = r.pending[:0]

	return nil
}

// Close flushes the buffered rows and closes the database.
func (r *Recorder) Close() error {
	flushErr := r.Flush()
	closeErr := r.DB.Close()

	if flushErr != nil {
		return flushErr
	}

	return closeErr
}

func (r *Recorder) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}
