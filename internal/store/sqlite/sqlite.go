// Package sqlite implements the engine store on SQLite for local and dev
// use. Semantics match the postgres store, including idempotent inserts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables
// WAL journal mode for better concurrency under overlapping jobs.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the embedded DDL. Safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range store.DDLStatements("sqlite") {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// NewWithDB constructs a SQLite store backed by an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Accounts() store.Accounts           { return &accounts{db: s.db} }
func (s *sqliteStore) Opportunities() store.Opportunities { return &opportunities{db: s.db} }
func (s *sqliteStore) Authors() store.Authors             { return &authors{db: s.db} }
func (s *sqliteStore) Watermarks() store.Watermarks       { return &watermarks{db: s.db} }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqliteStore) Close() error                   { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// --- Accounts ---

type accounts struct{ db *sql.DB }

func (a *accounts) Get(ctx context.Context, accountID string) (*model.Account, error) {
	row := a.db.QueryRowContext(ctx, `
        SELECT account_id, platform, handle, status, discovery_schedules, creation_time
        FROM accounts WHERE account_id = ?
    `, accountID)
	return scanAccount(row)
}

func (a *accounts) ListActive(ctx context.Context) ([]*model.Account, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT account_id, platform, handle, status, discovery_schedules, creation_time
        FROM accounts WHERE status = ? ORDER BY creation_time
    `, model.AccountActive)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var out model.Account
	var schedules string
	if err := row.Scan(&out.AccountID, &out.Platform, &out.Handle, &out.Status, &schedules, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if schedules != "" {
		if err := json.Unmarshal([]byte(schedules), &out.Schedules); err != nil {
			return nil, fmt.Errorf("decode schedules for %s: %w", out.AccountID, err)
		}
	}
	return &out, nil
}

// --- Opportunities ---

type opportunities struct{ db *sql.DB }

const insertOpportunitySQL = `
INSERT INTO opportunities (
    opportunity_id, account_id, author_id, platform_post_id,
    post_text, post_url, post_created_at,
    likes, reposts, replies,
    score_recency, score_impact, score_total,
    status, discovered_at, expires_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (account_id, platform_post_id) DO NOTHING`

func (o *opportunities) InsertBatch(ctx context.Context, opps []*model.Opportunity) ([]*model.Opportunity, error) {
	if len(opps) == 0 {
		return nil, nil
	}
	tx, err := o.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var inserted []*model.Opportunity
	for _, opp := range opps {
		res, err := tx.ExecContext(ctx, insertOpportunitySQL,
			opp.OpportunityID, opp.AccountID, opp.AuthorID, opp.PlatformPostID,
			opp.Text, opp.URL, opp.PostCreatedAt.UTC(),
			opp.Likes, opp.Reposts, opp.Replies,
			opp.Score.Recency, opp.Score.Impact, opp.Score.Total,
			string(opp.Status), opp.DiscoveredAt.UTC(), opp.ExpiresAt.UTC())
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, opp)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inserted, nil
}

func (o *opportunities) ExistingPostIDs(ctx context.Context, accountID string, postIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(postIDs)), ",")
	args := make([]interface{}, 0, len(postIDs)+1)
	args = append(args, accountID)
	for _, id := range postIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT platform_post_id FROM opportunities WHERE account_id = ? AND platform_post_id IN (%s)`, placeholders)
	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (o *opportunities) UpdateStatus(ctx context.Context, accountID, opportunityID string, status model.OpportunityStatus) (*model.Opportunity, error) {
	tx, err := o.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current model.OpportunityStatus
	err = tx.QueryRowContext(ctx, `
        SELECT status FROM opportunities WHERE account_id = ? AND opportunity_id = ?
    `, accountID, opportunityID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if !current.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: cannot move %s opportunity to %s", model.ErrConflict, current, status)
	}
	if _, err := tx.ExecContext(ctx, `
        UPDATE opportunities SET status = ? WHERE account_id = ? AND opportunity_id = ?
    `, string(status), accountID, opportunityID); err != nil {
		return nil, err
	}
	opp, err := scanOpportunity(tx.QueryRowContext(ctx, selectOpportunitySQL+` WHERE account_id = ? AND opportunity_id = ?`, accountID, opportunityID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return opp, nil
}

const selectOpportunitySQL = `
SELECT opportunity_id, account_id, author_id, platform_post_id,
       post_text, post_url, post_created_at,
       likes, reposts, replies,
       score_recency, score_impact, score_total,
       status, discovered_at, expires_at
FROM opportunities`

func scanOpportunity(row rowScanner) (*model.Opportunity, error) {
	var o model.Opportunity
	if err := row.Scan(&o.OpportunityID, &o.AccountID, &o.AuthorID, &o.PlatformPostID,
		&o.Text, &o.URL, &o.PostCreatedAt,
		&o.Likes, &o.Reposts, &o.Replies,
		&o.Score.Recency, &o.Score.Impact, &o.Score.Total,
		&o.Status, &o.DiscoveredAt, &o.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (o *opportunities) ListQueue(ctx context.Context, req model.ListQueueRequest) ([]*model.Opportunity, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	query := selectOpportunitySQL + ` WHERE account_id = ?`
	args := []interface{}{req.AccountID}
	if req.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*req.Status))
		if *req.Status == model.OpportunityPending {
			query += " AND expires_at > ?"
			args = append(args, now.UTC())
		}
	}
	query += " ORDER BY score_total DESC, discovered_at DESC"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", req.Limit)
	}
	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, opp)
	}
	return out, rows.Err()
}

func (o *opportunities) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	res, err := o.db.ExecContext(ctx, `
        UPDATE opportunities SET status = ?
        WHERE opportunity_id IN (
            SELECT opportunity_id FROM opportunities
            WHERE status = ? AND expires_at <= ?
            ORDER BY expires_at ASC
            LIMIT ?
        )
    `, string(model.OpportunityExpired), string(model.OpportunityPending), now.UTC(), limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Authors ---

type authors struct{ db *sql.DB }

func (a *authors) Upsert(ctx context.Context, m *model.Author) error {
	_, err := a.db.ExecContext(ctx, `
        INSERT INTO authors (author_id, handle, display_name, bio, follower_count, last_seen_at)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT (author_id) DO UPDATE SET
            handle=excluded.handle,
            display_name=excluded.display_name,
            bio=excluded.bio,
            follower_count=excluded.follower_count,
            last_seen_at=excluded.last_seen_at
    `, m.AuthorID, m.Handle, m.DisplayName, m.Bio, m.FollowerCount, m.LastSeenAt.UTC())
	return err
}

func (a *authors) Get(ctx context.Context, authorID string) (*model.Author, error) {
	var out model.Author
	row := a.db.QueryRowContext(ctx, `
        SELECT author_id, handle, display_name, bio, follower_count, last_seen_at
        FROM authors WHERE author_id = ?
    `, authorID)
	if err := row.Scan(&out.AuthorID, &out.Handle, &out.DisplayName, &out.Bio, &out.FollowerCount, &out.LastSeenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// --- Watermarks ---

type watermarks struct{ db *sql.DB }

func (w *watermarks) Get(ctx context.Context, accountID string, t model.DiscoveryType) (*time.Time, error) {
	var ts time.Time
	err := w.db.QueryRowContext(ctx, `
        SELECT last_fetch_at FROM fetch_watermarks WHERE account_id = ? AND discovery_type = ?
    `, accountID, string(t)).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (w *watermarks) Put(ctx context.Context, accountID string, t model.DiscoveryType, lastFetchAt time.Time) error {
	_, err := w.db.ExecContext(ctx, `
        INSERT INTO fetch_watermarks (account_id, discovery_type, last_fetch_at)
        VALUES (?,?,?)
        ON CONFLICT (account_id, discovery_type) DO UPDATE SET last_fetch_at=excluded.last_fetch_at
    `, accountID, string(t), lastFetchAt.UTC())
	return err
}
