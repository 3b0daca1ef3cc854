// Package governor tracks concurrently running executions and enforces the
// process-wide concurrency bound. The registry is persisted in SQLite so
// slots survive restarts and crashed owners can be detected: registration
// first reclaims entries whose owning process is gone, then checks capacity
// inside the same transaction, so two near-simultaneous registrations can
// never both slip past the bound.
package governor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/logging"
)

// DefaultCapacity is the maximum number of simultaneous instances.
const DefaultCapacity = 5

// ErrCapacityExhausted is returned by Register when every slot is held by a
// live instance. It is an admission refusal, not a failure; callers may
// retry later or skip.
var ErrCapacityExhausted = errors.New("governor: instance capacity exhausted")

// Source tags where an instance originated.
type Source string

const (
	SourceTerminal  Source = "terminal"
	SourceWeb       Source = "web"
	SourceMessaging Source = "messaging"
	SourceScheduled Source = "scheduled"
	SourceTest      Source = "test"
)

// Kind tags how an instance runs.
type Kind string

const (
	KindInteractive Kind = "interactive"
	KindBackground  Kind = "background"
	KindScheduled   Kind = "scheduled"
)

// Instance is one admitted execution slot.
type Instance struct {
	ID          string
	PID         int
	Description string
	Source      Source
	Kind        Kind
	StartedAt   time.Time
	Status      string
}

// Options configures a Governor.
type Options struct {
	// Capacity bounds simultaneous instances. Default DefaultCapacity.
	Capacity int

	// Alive reports whether the process owning a slot still runs. Defaults
	// to signaling the pid. Overridable for tests.
	Alive func(pid int) bool

	Logger logging.Logger
}

// Governor owns the persisted instance registry.
type Governor struct {
	db       *sql.DB
	capacity int
	alive    func(pid int) bool
	logger   logging.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS instances (
	id          TEXT PRIMARY KEY,
	pid         INTEGER NOT NULL,
	description TEXT NOT NULL,
	source      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	status      TEXT NOT NULL DEFAULT 'starting'
);`

// Open creates or opens the registry database at path.
func Open(path string, optFns ...func(o *Options)) (*Governor, error) {
	opts := Options{
		Capacity: DefaultCapacity,
		Alive:    processAlive,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open instance registry: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent registrations.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create instance registry schema: %w", err)
	}

	return &Governor{
		db:       db,
		capacity: opts.Capacity,
		alive:    opts.Alive,
		logger:   opts.Logger,
	}, nil
}

// Close releases the registry database.
func (g *Governor) Close() error { return g.db.Close() }

// Capacity returns the configured bound.
func (g *Governor) Capacity() int { return g.capacity }

// Register admits a new instance, returning its id. Stale slots are
// reclaimed before the capacity check so crashed instances never pin a
// slot. Returns ErrCapacityExhausted when all slots are live.
func (g *Governor) Register(ctx context.Context, description string, source Source, kind Kind) (string, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback()

	if err := g.reclaimStale(ctx, tx); err != nil {
		return "", err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM instances`).Scan(&count); err != nil {
		return "", fmt.Errorf("count instances: %w", err)
	}
	if count >= g.capacity {
		return "", ErrCapacityExhausted
	}

	id := core.NewID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO instances (id, pid, description, source, kind, started_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'starting')`,
		id, os.Getpid(), description, string(source), string(kind), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert instance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit registration: %w", err)
	}

	g.logger.Info("instance registered", "id", id, "source", source, "kind", kind)
	return id, nil
}

// Unregister releases the slot. Unknown ids are a no-op.
func (g *Governor) Unregister(ctx context.Context, id string) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id); err != nil {
		return fmt.Errorf("unregister instance: %w", err)
	}
	g.logger.Info("instance unregistered", "id", id)
	return nil
}

// UpdateStatus sets the free-text phase label for an instance.
func (g *Governor) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := g.db.ExecContext(ctx, `UPDATE instances SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update instance status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update instance status: unknown instance %s", id)
	}
	return nil
}

// ListActive returns the live instances, reclaiming stale slots first.
func (g *Governor) ListActive(ctx context.Context) ([]Instance, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin listing: %w", err)
	}
	defer tx.Rollback()

	if err := g.reclaimStale(ctx, tx); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, pid, description, source, kind, started_at, status
		 FROM instances ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		var inst Instance
		var source, kind string
		if err := rows.Scan(&inst.ID, &inst.PID, &inst.Description, &source, &kind, &inst.StartedAt, &inst.Status); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		inst.Source = Source(source)
		inst.Kind = Kind(kind)
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit listing: %w", err)
	}
	return out, nil
}

// reclaimStale removes entries whose owning process no longer exists.
func (g *Governor) reclaimStale(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, pid FROM instances`)
	if err != nil {
		return fmt.Errorf("scan for stale instances: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		var pid int
		if err := rows.Scan(&id, &pid); err != nil {
			rows.Close()
			return fmt.Errorf("scan instance pid: %w", err)
		}
		if !g.alive(pid) {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("scan for stale instances: %w", err)
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id); err != nil {
			return fmt.Errorf("reclaim stale instance %s: %w", id, err)
		}
		g.logger.Warn("reclaimed stale instance", "id", id)
	}
	return nil
}

// processAlive reports whether pid refers to a live process by sending the
// null signal.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
