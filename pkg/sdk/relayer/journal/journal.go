// Package journal keeps a local sqlite record of relayer submissions and of
// every state the client observes while waiting on them.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Journal implements relayer.Recorder on top of sqlite.
type Journal struct {
	db *sql.DB
}

// Entry is one submitted transaction with its latest known state.
type Entry struct {
	ID            string                 `json:"id"`
	TransactionID string                 `json:"transactionId"`
	Type          types.TransactionType  `json:"type"`
	From          string                 `json:"from"`
	To            string                 `json:"to"`
	ProxyWallet   string                 `json:"proxyWallet"`
	Nonce         string                 `json:"nonce,omitempty"`
	Metadata      string                 `json:"metadata,omitempty"`
	State         types.TransactionState `json:"state"`
	TxHash        string                 `json:"txHash,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// StateEvent is one observed state of a transaction.
type StateEvent struct {
	TransactionID string                 `json:"transactionId"`
	State         types.TransactionState `json:"state"`
	TxHash        string                 `json:"txHash,omitempty"`
	ObservedAt    time.Time              `json:"observedAt"`
}

// Open opens (and migrates) the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal: path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "mkdir journal dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  from_addr TEXT NOT NULL,
  to_addr TEXT NOT NULL,
  proxy_wallet TEXT NOT NULL,
  nonce TEXT,
  metadata TEXT,
  state TEXT NOT NULL,
  tx_hash TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`
CREATE TABLE IF NOT EXISTS state_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  transaction_id TEXT NOT NULL,
  state TEXT NOT NULL,
  tx_hash TEXT,
  observed_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_state_events_tx ON state_events(transaction_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("journal migrate: %w", err)
		}
	}
	return nil
}

// RecordSubmission stores a submitted request under its relayer id.
func (j *Journal) RecordSubmission(ctx context.Context, req types.TransactionRequest, resp types.SubmitResponse) error {
	if resp.TransactionID == "" {
		return errors.New("journal: submission without transaction id")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	state := types.ParseTransactionState(resp.State)
	if state == types.StateUnknown {
		state = types.StateNew
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO submissions (id, transaction_id, type, from_addr, to_addr, proxy_wallet, nonce, metadata, state, tx_hash, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(transaction_id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at
`, uuid.NewString(), resp.TransactionID, string(req.Type), req.From, req.To, req.ProxyWallet,
		nullable(req.Nonce), nullable(req.Metadata), state.String(), nullable(resp.TransactionHash), now, now)
	return err
}

// RecordState appends an observed state and updates the submission row.
func (j *Journal) RecordState(ctx context.Context, tx types.RelayerTransaction) error {
	if tx.TransactionID == "" {
		return errors.New("journal: state without transaction id")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	state := tx.ParsedState().String()

	dbtx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbtx.Rollback() }()

	if _, err := dbtx.ExecContext(ctx, `
INSERT INTO state_events (transaction_id, state, tx_hash, observed_at) VALUES (?,?,?,?)
`, tx.TransactionID, state, nullable(tx.TransactionHash), now); err != nil {
		return err
	}
	if _, err := dbtx.ExecContext(ctx, `
UPDATE submissions SET state=?, tx_hash=COALESCE(?, tx_hash), updated_at=? WHERE transaction_id=?
`, state, nullable(tx.TransactionHash), now, tx.TransactionID); err != nil {
		return err
	}
	return dbtx.Commit()
}

// List returns the most recent submissions first.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, transaction_id, type, from_addr, to_addr, proxy_wallet, nonce, metadata, state, tx_hash, created_at, updated_at
FROM submissions
ORDER BY rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the submission for a relayer transaction id, or (nil, nil).
func (j *Journal) Get(ctx context.Context, transactionID string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, `
SELECT id, transaction_id, type, from_addr, to_addr, proxy_wallet, nonce, metadata, state, tx_hash, created_at, updated_at
FROM submissions WHERE transaction_id=?
`, transactionID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Events returns the observed states of a transaction in order.
func (j *Journal) Events(ctx context.Context, transactionID string) ([]StateEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT transaction_id, state, tx_hash, observed_at FROM state_events
WHERE transaction_id=? ORDER BY id ASC
`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateEvent
	for rows.Next() {
		var (
			ev         StateEvent
			state      string
			hash       sql.NullString
			observedAt string
		)
		if err := rows.Scan(&ev.TransactionID, &state, &hash, &observedAt); err != nil {
			return nil, err
		}
		ev.State = types.ParseTransactionState(state)
		ev.TxHash = hash.String
		ev.ObservedAt, _ = time.Parse(time.RFC3339Nano, observedAt)
		out = append(out, ev)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e                    Entry
		typ, state           string
		nonce, meta, hash    sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&e.ID, &e.TransactionID, &typ, &e.From, &e.To, &e.ProxyWallet, &nonce, &meta, &state, &hash, &createdAt, &updatedAt); err != nil {
		return Entry{}, err
	}
	e.Type = types.TransactionType(typ)
	e.State = types.ParseTransactionState(state)
	e.Nonce = nonce.String
	e.Metadata = meta.String
	e.TxHash = hash.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
