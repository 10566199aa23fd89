package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultListLimit caps List when no positive limit is given
const DefaultListLimit = 50

// ErrNotFound is returned when settling a transaction that was never recorded
var ErrNotFound = errors.New("transaction not found in journal")

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	tx_id          TEXT PRIMARY KEY,
	submission_id  TEXT NOT NULL,
	action         TEXT NOT NULL,
	wallet         TEXT NOT NULL,
	amount         INTEGER NOT NULL DEFAULT 0,
	collateral     INTEGER NOT NULL DEFAULT 0,
	recipient      TEXT NOT NULL DEFAULT '',
	explorer_url   TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	failure_detail TEXT NOT NULL DEFAULT '',
	submitted_at   INTEGER NOT NULL,
	settled_at     INTEGER
);
CREATE INDEX IF NOT EXISTS submissions_submitted_at ON submissions (submitted_at DESC);
`

// Entry is one journaled transaction
type Entry struct {
	TxID          string           `json:"tx_id"`
	SubmissionID  string           `json:"submission_id"`
	Action        lifecycle.Action `json:"action"`
	WalletKind    wallet.Kind      `json:"wallet"`
	Amount        uint64           `json:"amount"`
	Collateral    uint64           `json:"collateral,omitempty"`
	Recipient     string           `json:"recipient,omitempty"`
	ExplorerURL   string           `json:"explorer_url,omitempty"`
	Status        chain.TxStatus   `json:"status"`
	FailureDetail string           `json:"failure_detail,omitempty"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
}

// Journal is a SQLite log of submitted transactions
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the journal database at path
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// a single connection keeps writes serialized and in-memory databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return &Journal{
		db:     db,
		logger: logger.Log.With(zap.String("component", "journal"), zap.String("path", path)),
	}, nil
}

// Close releases the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordSubmitted stores a newly submitted transaction as pending
func (j *Journal) RecordSubmitted(ctx context.Context, sub lifecycle.Submission) error {
	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO submissions (tx_id, submission_id, action, wallet, amount, collateral, recipient, explorer_url, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tx_id) DO NOTHING`,
		sub.TxID, sub.ID, string(sub.Action), string(sub.WalletKind),
		int64(sub.Amount), int64(sub.Collateral), sub.Recipient, sub.ExplorerURL,
		string(chain.StatusPending), submittedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission %s: %w", sub.TxID, err)
	}
	j.logger.Debug("recorded submission", zap.String("tx_id", sub.TxID))
	return nil
}

// RecordSettled stores the terminal status of a recorded transaction
func (j *Journal) RecordSettled(ctx context.Context, txID string, status chain.TxStatus, detail string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, failure_detail = ?, settled_at = ?
		WHERE tx_id = ?`,
		string(status), detail, time.Now().UnixMilli(), txID,
	)
	if err != nil {
		return fmt.Errorf("failed to record settlement %s: %w", txID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record settlement %s: %w", txID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, txID)
	}
	return nil
}

// List returns up to limit entries, newest first
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT tx_id, submission_id, action, wallet, amount, collateral, recipient, explorer_url,
		       status, failure_detail, submitted_at, settled_at
		FROM submissions
		ORDER BY submitted_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e                    Entry
			action, kind, status string
			amount, collateral   int64
			submittedAt          int64
			settledAt            sql.NullInt64
		)
		if err := rows.Scan(&e.TxID, &e.SubmissionID, &action, &kind, &amount, &collateral,
			&e.Recipient, &e.ExplorerURL, &status, &e.FailureDetail, &submittedAt, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Action = lifecycle.Action(action)
		e.WalletKind = wallet.Kind(kind)
		e.Status = chain.TxStatus(status)
		e.Amount = uint64(amount)
		e.Collateral = uint64(collateral)
		e.SubmittedAt = time.UnixMilli(submittedAt).UTC()
		if settledAt.Valid {
			t := time.UnixMilli(settledAt.Int64).UTC()
			e.SettledAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	return entries, nil
}
