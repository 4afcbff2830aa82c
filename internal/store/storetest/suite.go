// Package storetest provides a driver-agnostic compliance suite for
// store.Store implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store"
)

// Harness bundles a clean store with a driver-specific account seeder.
// Accounts are read-only through the store interface (the setup flow owns
// them), so each driver supplies its own insert path for fixtures.
type Harness struct {
	Store       store.Store
	SeedAccount func(ctx context.Context, a *model.Account) error
}

// Run exercises a compliance suite against a store implementation.
func Run(t *testing.T, makeHarness func(t *testing.T) Harness) {
	t.Helper()

	h := makeHarness(t)
	s := h.Store
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	accountID := "acct-" + uuid.New().String()
	acct := &model.Account{
		AccountID: accountID,
		Platform:  "bluesky",
		Handle:    "tester.example.com",
		Status:    model.AccountActive,
		Schedules: []model.DiscoverySchedule{
			{Type: model.DiscoveryReplies, CronExpr: "*/15 * * * *", Enabled: true},
			{Type: model.DiscoverySearch, CronExpr: "0 */2 * * *", Enabled: false, Keywords: []string{"golang"}},
		},
		CreationTime: now,
	}
	if err := h.SeedAccount(ctx, acct); err != nil {
		t.Fatalf("SeedAccount: %v", err)
	}

	// Accounts
	got, err := s.Accounts().Get(ctx, accountID)
	if err != nil || got == nil {
		t.Fatalf("GetAccount: got=%v err=%v", got, err)
	}
	if len(got.Schedules) != 2 || got.Schedules[0].CronExpr != "*/15 * * * *" {
		t.Fatalf("GetAccount schedules round-trip: %+v", got.Schedules)
	}
	if _, err := s.Accounts().Get(ctx, "missing"); err != model.ErrNotFound {
		t.Fatalf("GetAccount missing: want ErrNotFound, got %v", err)
	}
	if lst, err := s.Accounts().ListActive(ctx); err != nil || len(lst) == 0 {
		t.Fatalf("ListActive: n=%d err=%v", len(lst), err)
	}

	// Authors: upsert then refresh
	author := &model.Author{AuthorID: "did:plc:alice", Handle: "alice", DisplayName: "Alice", FollowerCount: 100, LastSeenAt: now}
	if err := s.Authors().Upsert(ctx, author); err != nil {
		t.Fatalf("UpsertAuthor: %v", err)
	}
	author.FollowerCount = 250
	if err := s.Authors().Upsert(ctx, author); err != nil {
		t.Fatalf("UpsertAuthor refresh: %v", err)
	}
	if got, err := s.Authors().Get(ctx, "did:plc:alice"); err != nil || got.FollowerCount != 250 {
		t.Fatalf("GetAuthor after refresh: got=%+v err=%v", got, err)
	}
	if _, err := s.Authors().Get(ctx, "did:plc:nobody"); err != model.ErrNotFound {
		t.Fatalf("GetAuthor missing: want ErrNotFound, got %v", err)
	}

	// Opportunities: batch insert with an in-batch duplicate post id
	mk := func(postID string, total float64, expiresAt time.Time) *model.Opportunity {
		return &model.Opportunity{
			OpportunityID:  uuid.New().String(),
			AccountID:      accountID,
			AuthorID:       "did:plc:alice",
			PlatformPostID: postID,
			Text:           "post " + postID,
			URL:            "https://example.com/" + postID,
			PostCreatedAt:  now.Add(-10 * time.Minute),
			Likes:          3,
			Score:          model.Score{Recency: 70, Impact: 40, Total: total},
			Status:         model.OpportunityPending,
			DiscoveredAt:   now,
			ExpiresAt:      expiresAt,
		}
	}
	fresh := now.Add(48 * time.Hour)
	inserted, err := s.Opportunities().InsertBatch(ctx, []*model.Opportunity{
		mk("p1", 58.0, fresh),
		mk("p2", 91.5, fresh),
		mk("p1", 58.0, fresh), // duplicate within batch
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("InsertBatch: want 2 inserted, got %d", len(inserted))
	}

	// Re-discovery is idempotent
	again, err := s.Opportunities().InsertBatch(ctx, []*model.Opportunity{mk("p1", 58.0, fresh), mk("p2", 91.5, fresh)})
	if err != nil {
		t.Fatalf("InsertBatch rerun: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("InsertBatch rerun: want 0 inserted, got %d", len(again))
	}

	// ExistingPostIDs
	existing, err := s.Opportunities().ExistingPostIDs(ctx, accountID, []string{"p1", "p2", "p3"})
	if err != nil {
		t.Fatalf("ExistingPostIDs: %v", err)
	}
	if !existing["p1"] || !existing["p2"] || existing["p3"] {
		t.Fatalf("ExistingPostIDs: %v", existing)
	}

	// Queue ordering: highest score first
	pending := model.OpportunityPending
	queue, err := s.Opportunities().ListQueue(ctx, model.ListQueueRequest{AccountID: accountID, Status: &pending, Now: now})
	if err != nil || len(queue) != 2 {
		t.Fatalf("ListQueue: n=%d err=%v", len(queue), err)
	}
	if queue[0].PlatformPostID != "p2" {
		t.Fatalf("ListQueue order: want p2 first, got %s", queue[0].PlatformPostID)
	}

	// An opportunity past its expiry never appears in the pending queue,
	// even before a sweep runs.
	overdue := mk("p-old", 10.0, now.Add(-time.Minute))
	if _, err := s.Opportunities().InsertBatch(ctx, []*model.Opportunity{overdue}); err != nil {
		t.Fatalf("InsertBatch overdue: %v", err)
	}
	queue, err = s.Opportunities().ListQueue(ctx, model.ListQueueRequest{AccountID: accountID, Status: &pending, Now: now})
	if err != nil || len(queue) != 2 {
		t.Fatalf("ListQueue with overdue row: n=%d err=%v", len(queue), err)
	}

	// Sweep flips it to expired
	if n, err := s.Opportunities().ExpireOverdue(ctx, now, 100); err != nil || n != 1 {
		t.Fatalf("ExpireOverdue: n=%d err=%v", n, err)
	}
	expired := model.OpportunityExpired
	if lst, err := s.Opportunities().ListQueue(ctx, model.ListQueueRequest{AccountID: accountID, Status: &expired, Now: now}); err != nil || len(lst) != 1 {
		t.Fatalf("ListQueue expired: n=%d err=%v", len(lst), err)
	}

	// Status transitions
	updated, err := s.Opportunities().UpdateStatus(ctx, accountID, inserted[0].OpportunityID, model.OpportunityResponded)
	if err != nil || updated.Status != model.OpportunityResponded {
		t.Fatalf("UpdateStatus responded: got=%+v err=%v", updated, err)
	}
	if _, err := s.Opportunities().UpdateStatus(ctx, accountID, inserted[0].OpportunityID, model.OpportunityDismissed); err == nil {
		t.Fatal("UpdateStatus: responded is terminal, want conflict")
	}
	if _, err := s.Opportunities().UpdateStatus(ctx, accountID, "missing", model.OpportunityDismissed); err != model.ErrNotFound {
		t.Fatalf("UpdateStatus missing: want ErrNotFound, got %v", err)
	}

	// Watermarks
	if wm, err := s.Watermarks().Get(ctx, accountID, model.DiscoveryReplies); err != nil || wm != nil {
		t.Fatalf("Watermark before put: wm=%v err=%v", wm, err)
	}
	mark := now.Add(-5 * time.Minute)
	if err := s.Watermarks().Put(ctx, accountID, model.DiscoveryReplies, mark); err != nil {
		t.Fatalf("Watermark put: %v", err)
	}
	later := now
	if err := s.Watermarks().Put(ctx, accountID, model.DiscoveryReplies, later); err != nil {
		t.Fatalf("Watermark put again: %v", err)
	}
	wm, err := s.Watermarks().Get(ctx, accountID, model.DiscoveryReplies)
	if err != nil || wm == nil || !wm.Equal(later) {
		t.Fatalf("Watermark get: wm=%v err=%v", wm, err)
	}

	// Ping
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
