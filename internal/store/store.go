// Package store defines persistence operations required by the discovery
// engine. Implementations live under internal/store/<driver>/.
package store

import (
	"context"
	"time"

	"github.com/replyscout/replyscout/internal/model"
)

// Store exposes the collections the engine reads and writes. Accounts are
// owned externally and read-only here; Opportunities and Authors are
// exclusively written by the discovery service and the expiry sweeper.
type Store interface {
	Accounts() Accounts
	Opportunities() Opportunities
	Authors() Authors
	Watermarks() Watermarks

	// Ping verifies connectivity for health checks.
	Ping(ctx context.Context) error
	Close() error
}

type Accounts interface {
	Get(ctx context.Context, accountID string) (*model.Account, error)
	ListActive(ctx context.Context) ([]*model.Account, error)
}

type Opportunities interface {
	// InsertBatch inserts opportunities, silently skipping any that
	// collide on (accountID, platformPostID), and returns the subset
	// actually inserted.
	InsertBatch(ctx context.Context, opps []*model.Opportunity) ([]*model.Opportunity, error)

	// ExistingPostIDs reports which of the given platform post ids are
	// already stored for the account.
	ExistingPostIDs(ctx context.Context, accountID string, postIDs []string) (map[string]bool, error)

	// UpdateStatus applies a lifecycle transition. Returns
	// model.ErrNotFound for an unknown opportunity and
	// model.ErrConflict for an illegal transition.
	UpdateStatus(ctx context.Context, accountID, opportunityID string, status model.OpportunityStatus) (*model.Opportunity, error)

	// ListQueue returns opportunities ordered by total score descending.
	ListQueue(ctx context.Context, req model.ListQueueRequest) ([]*model.Opportunity, error)

	// ExpireOverdue marks up to limit pending opportunities whose
	// expires_at is not after now as expired and returns the count.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
}

type Authors interface {
	// Upsert inserts the author or refreshes an existing row so follower
	// counts stay current.
	Upsert(ctx context.Context, a *model.Author) error
	Get(ctx context.Context, authorID string) (*model.Author, error)
}

type Watermarks interface {
	// Get returns the last successful fetch time for (account, type),
	// or nil when the job has never completed.
	Get(ctx context.Context, accountID string, t model.DiscoveryType) (*time.Time, error)
	Put(ctx context.Context, accountID string, t model.DiscoveryType, lastFetchAt time.Time) error
}
