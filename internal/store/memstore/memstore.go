// Package memstore provides an in-memory store.Store used by unit tests
// and local experiments. It enforces the same invariants as the SQL
// stores: idempotent opportunity inserts, legal status transitions, and a
// pending queue that excludes expired rows.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store"
)

type Store struct {
	mu sync.Mutex

	accounts      map[string]*model.Account
	authors       map[string]*model.Author
	opportunities map[string]*model.Opportunity
	postIndex     map[string]string // accountID+"\x00"+platformPostID -> opportunityID
	watermarks    map[string]time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:      map[string]*model.Account{},
		authors:       map[string]*model.Author{},
		opportunities: map[string]*model.Opportunity{},
		postIndex:     map[string]string{},
		watermarks:    map[string]time.Time{},
	}
}

// AddAccount seeds an account. Accounts are read-only through the store
// interface, matching their external ownership.
func (s *Store) AddAccount(a *model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.AccountID] = &cp
}

func (s *Store) Accounts() store.Accounts           { return (*accounts)(s) }
func (s *Store) Opportunities() store.Opportunities { return (*opportunities)(s) }
func (s *Store) Authors() store.Authors             { return (*authors)(s) }
func (s *Store) Watermarks() store.Watermarks       { return (*watermarks)(s) }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func postKey(accountID, platformPostID string) string {
	return accountID + "\x00" + platformPostID
}

// --- Accounts ---

type accounts Store

func (a *accounts) Get(ctx context.Context, accountID string) (*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acct, ok := a.accounts[accountID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (a *accounts) ListActive(ctx context.Context) ([]*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*model.Account
	for _, acct := range a.accounts {
		if acct.Status == model.AccountActive {
			cp := *acct
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// --- Opportunities ---

type opportunities Store

func (o *opportunities) InsertBatch(ctx context.Context, opps []*model.Opportunity) ([]*model.Opportunity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var inserted []*model.Opportunity
	for _, opp := range opps {
		key := postKey(opp.AccountID, opp.PlatformPostID)
		if _, dup := o.postIndex[key]; dup {
			continue
		}
		cp := *opp
		o.opportunities[opp.OpportunityID] = &cp
		o.postIndex[key] = opp.OpportunityID
		inserted = append(inserted, opp)
	}
	return inserted, nil
}

func (o *opportunities) ExistingPostIDs(ctx context.Context, accountID string, postIDs []string) (map[string]bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		if _, ok := o.postIndex[postKey(accountID, id)]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (o *opportunities) UpdateStatus(ctx context.Context, accountID, opportunityID string, status model.OpportunityStatus) (*model.Opportunity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	opp, ok := o.opportunities[opportunityID]
	if !ok || opp.AccountID != accountID {
		return nil, model.ErrNotFound
	}
	if !opp.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: cannot move %s opportunity to %s", model.ErrConflict, opp.Status, status)
	}
	opp.Status = status
	cp := *opp
	return &cp, nil
}

func (o *opportunities) ListQueue(ctx context.Context, req model.ListQueueRequest) ([]*model.Opportunity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	var out []*model.Opportunity
	for _, opp := range o.opportunities {
		if opp.AccountID != req.AccountID {
			continue
		}
		if req.Status != nil {
			if opp.Status != *req.Status {
				continue
			}
			if *req.Status == model.OpportunityPending && !opp.ExpiresAt.After(now) {
				continue
			}
		}
		cp := *opp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score.Total != out[j].Score.Total {
			return out[i].Score.Total > out[j].Score.Total
		}
		return out[i].DiscoveredAt.After(out[j].DiscoveredAt)
	})
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func (o *opportunities) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var n int64
	for _, opp := range o.opportunities {
		if limit > 0 && n >= int64(limit) {
			break
		}
		if opp.Status == model.OpportunityPending && !opp.ExpiresAt.After(now) {
			opp.Status = model.OpportunityExpired
			n++
		}
	}
	return n, nil
}

// --- Authors ---

type authors Store

func (a *authors) Upsert(ctx context.Context, m *model.Author) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *m
	a.authors[m.AuthorID] = &cp
	return nil
}

func (a *authors) Get(ctx context.Context, authorID string) (*model.Author, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	author, ok := a.authors[authorID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *author
	return &cp, nil
}

// --- Watermarks ---

type watermarks Store

func (w *watermarks) Get(ctx context.Context, accountID string, t model.DiscoveryType) (*time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ts, ok := w.watermarks[accountID+":"+string(t)]
	if !ok {
		return nil, nil
	}
	cp := ts
	return &cp, nil
}

func (w *watermarks) Put(ctx context.Context, accountID string, t model.DiscoveryType, lastFetchAt time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watermarks[accountID+":"+string(t)] = lastFetchAt
	return nil
}
