package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentkernel/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Actions recorded in the trail.
const (
	ActionSpawn           = "agent_spawn"
	ActionTerminate       = "agent_terminate"
	ActionCapabilityDeny  = "capability_deny"
	ActionTriggerRegister = "trigger_register"
	ActionDispatch        = "dispatch"
	ActionShutdown        = "shutdown"
)

// Entry is one audit record.
type Entry struct {
	ID         int64     `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	AgentID    string    `json:"agent_id,omitempty"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Allowed    bool      `json:"allowed"`
}

// Options configures the trail.
type Options struct {
	// Logger is the logger used by the trail. Defaults to NoOpLogger.
	Logger logging.Logger

	// BufferSize is the capacity of the in-memory entry buffer. Records
	// arriving while the buffer is full are dropped with a warning.
	BufferSize int

	// FlushInterval is how often the background writer flushes.
	FlushInterval time.Duration
}

// Trail is a buffered audit log backed by SQLite.
type Trail struct {
	db      *sql.DB
	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup
	closed  sync.Once
	opts    Options
}

// Open opens (or creates) the audit database at dsn, runs migrations and
// starts the background writer. Use ":memory:" for an ephemeral trail.
func Open(dsn string, optFns ...func(o *Options)) (*Trail, error) {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		BufferSize:    1024,
		FlushInterval: time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	// modernc sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("setting migration dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("migrating audit database: %w", err)
	}

	t := &Trail{
		db:      db,
		entries: make(chan Entry, opts.BufferSize),
		done:    make(chan struct{}),
		opts:    opts,
	}

	t.wg.Add(1)
	go t.writer()

	return t, nil
}

// Record buffers an entry for the background writer. It never blocks; if
// the buffer is full the entry is dropped and a warning logged.
func (t *Trail) Record(e Entry) {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	select {
	case t.entries <- e:
	default:
		t.opts.Logger.Warn("Audit buffer full, entry dropped", "action", e.Action, "agent_id", e.AgentID)
	}
}

// Flush drains everything currently buffered to the database.
func (t *Trail) Flush(ctx context.Context) error {
	for {
		select {
		case e := <-t.entries:
			if err := t.insert(ctx, e); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Recent returns up to n of the most recent entries, newest first.
func (t *Trail) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, recorded_at, agent_id, action, detail, allowed
		 FROM audit_entries ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.AgentID, &e.Action, &e.Detail, &e.Allowed); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close stops the writer, flushes the remaining buffer and closes the
// database.
func (t *Trail) Close() error {
	var err error

	t.closed.Do(func() {
		close(t.done)
		t.wg.Wait()

		if ferr := t.Flush(context.Background()); ferr != nil {
			err = ferr
		}

		if cerr := t.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})

	return err
}

// writer is the background flush loop.
func (t *Trail) writer() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.Flush(context.Background()); err != nil {
				t.opts.Logger.Error("Audit flush failed", "error", err)
			}
		}
	}
}

func (t *Trail) insert(ctx context.Context, e Entry) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO audit_entries (recorded_at, agent_id, action, detail, allowed)
		 VALUES (?, ?, ?, ?, ?)`,
		e.RecordedAt, e.AgentID, e.Action, e.Detail, e.Allowed)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}
