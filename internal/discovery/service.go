// Package discovery orchestrates one discovery run for an account and
// discovery type: fetch, dedupe, score, author upsert, opportunity insert.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/replyscout/replyscout/internal/adapter"
	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/scoring"
	"github.com/replyscout/replyscout/internal/store"
)

// Options tune a discovery service.
type Options struct {
	// Limit caps candidates requested per fetch.
	Limit int
	// Lookback bounds the first run of a job that has no watermark yet.
	Lookback time.Duration
	// TTL is the opportunity lifetime from discovery to expiry.
	TTL time.Duration
}

// Service runs discovery against a single platform adapter.
type Service struct {
	store   store.Store
	adapter adapter.PlatformAdapter
	log     zerolog.Logger
	opts    Options
	now     func() time.Time
}

// New constructs a discovery service from dependencies.
func New(s store.Store, a adapter.PlatformAdapter, log zerolog.Logger, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 24 * time.Hour
	}
	if opts.TTL <= 0 {
		opts.TTL = 48 * time.Hour
	}
	return &Service{store: s, adapter: a, log: log, opts: opts, now: time.Now}
}

// Discover executes one discovery run and returns the opportunities it
// inserted. An inactive account is a normal runtime state, not a caller
// mistake: the run is a no-op returning an empty list. An unknown account
// or unknown discovery type is a caller error. A total adapter failure
// propagates as a typed error; per-candidate failures are skipped and
// logged without aborting the run.
func (s *Service) Discover(ctx context.Context, accountID string, discoveryType model.DiscoveryType) ([]*model.Opportunity, error) {
	if !discoveryType.Valid() {
		return nil, fmt.Errorf("%w: unknown discovery type %q", model.ErrValidation, discoveryType)
	}

	acct, err := s.store.Accounts().Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}
	if acct.Status != model.AccountActive {
		s.log.Debug().Str("account_id", accountID).Str("status", acct.Status).Msg("account inactive, skipping discovery")
		return nil, nil
	}

	now := s.now().UTC()
	since, err := s.sinceWatermark(ctx, accountID, discoveryType, now)
	if err != nil {
		return nil, err
	}

	posts, err := s.fetch(ctx, acct, discoveryType, since)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}

	candidates, err := s.dedupe(ctx, accountID, posts)
	if err != nil {
		return nil, err
	}

	opps := s.build(ctx, accountID, candidates, now)

	inserted, err := s.store.Opportunities().InsertBatch(ctx, opps)
	if err != nil {
		return nil, fmt.Errorf("insert opportunities for %s: %w", accountID, err)
	}

	if err := s.advanceWatermark(ctx, accountID, discoveryType, posts); err != nil {
		// The run itself succeeded; a stale watermark only widens the
		// next fetch, and dedup absorbs the overlap.
		s.log.Warn().Err(err).Str("account_id", accountID).Str("discovery_type", string(discoveryType)).Msg("watermark update failed")
	}

	s.log.Info().
		Str("account_id", accountID).
		Str("discovery_type", string(discoveryType)).
		Int("fetched", len(posts)).
		Int("inserted", len(inserted)).
		Msg("discovery run complete")
	return inserted, nil
}

// sinceWatermark resolves the incremental-fetch lower bound: the persisted
// last successful fetch time, or a bounded lookback window on first run.
func (s *Service) sinceWatermark(ctx context.Context, accountID string, t model.DiscoveryType, now time.Time) (time.Time, error) {
	wm, err := s.store.Watermarks().Get(ctx, accountID, t)
	if err != nil {
		return time.Time{}, fmt.Errorf("load watermark %s:%s: %w", accountID, t, err)
	}
	if wm == nil {
		return now.Add(-s.opts.Lookback), nil
	}
	return *wm, nil
}

func (s *Service) fetch(ctx context.Context, acct *model.Account, t model.DiscoveryType, since time.Time) ([]adapter.RawPost, error) {
	opts := adapter.FetchOptions{Since: &since, Limit: s.opts.Limit}
	switch t {
	case model.DiscoveryReplies:
		return s.adapter.FetchReplies(ctx, opts)
	case model.DiscoverySearch:
		sched, ok := acct.Schedule(model.DiscoverySearch)
		if !ok || len(sched.Keywords) == 0 {
			return nil, fmt.Errorf("%w: account %s has no search keywords configured", model.ErrValidation, acct.AccountID)
		}
		return s.adapter.SearchPosts(ctx, sched.Keywords, opts)
	}
	return nil, fmt.Errorf("%w: unknown discovery type %q", model.ErrValidation, t)
}

// dedupe removes posts already stored for the account and collapses
// duplicates within the batch itself (overlapping queries may surface the
// same post twice).
func (s *Service) dedupe(ctx context.Context, accountID string, posts []adapter.RawPost) ([]adapter.RawPost, error) {
	seen := make(map[string]bool, len(posts))
	var unique []adapter.RawPost
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.PlatformPostID == "" || seen[p.PlatformPostID] {
			continue
		}
		seen[p.PlatformPostID] = true
		unique = append(unique, p)
		ids = append(ids, p.PlatformPostID)
	}

	existing, err := s.store.Opportunities().ExistingPostIDs(ctx, accountID, ids)
	if err != nil {
		return nil, fmt.Errorf("dedupe against stored opportunities: %w", err)
	}
	var out []adapter.RawPost
	for _, p := range unique {
		if !existing[p.PlatformPostID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// build resolves authors, scores candidates, and assembles opportunities.
// A failed author lookup or upsert skips that candidate only; the author
// row must exist before the opportunity referencing it is inserted.
func (s *Service) build(ctx context.Context, accountID string, posts []adapter.RawPost, now time.Time) []*model.Opportunity {
	authorCache := make(map[string]*model.Author)
	var opps []*model.Opportunity

	for _, p := range posts {
		author, ok := authorCache[p.AuthorPlatformID]
		if !ok {
			var err error
			author, err = s.resolveAuthor(ctx, p.AuthorPlatformID, now)
			if err != nil {
				s.log.Warn().Err(err).
					Str("account_id", accountID).
					Str("platform_post_id", p.PlatformPostID).
					Str("author_platform_id", p.AuthorPlatformID).
					Str("adapter_error", string(adapter.Classify(err))).
					Msg("skipping candidate, author resolution failed")
				continue
			}
			authorCache[p.AuthorPlatformID] = author
		}

		score, err := s.score(p, author, now)
		if err != nil {
			s.log.Warn().Err(err).
				Str("account_id", accountID).
				Str("platform_post_id", p.PlatformPostID).
				Msg("skipping candidate, scoring failed")
			continue
		}

		opps = append(opps, &model.Opportunity{
			OpportunityID:  uuid.New().String(),
			AccountID:      accountID,
			AuthorID:       author.AuthorID,
			PlatformPostID: p.PlatformPostID,
			Text:           p.Text,
			URL:            p.URL,
			PostCreatedAt:  p.CreatedAt,
			Likes:          p.Likes,
			Reposts:        p.Reposts,
			Replies:        p.Replies,
			Score:          score,
			Status:         model.OpportunityPending,
			DiscoveredAt:   now,
			ExpiresAt:      now.Add(s.opts.TTL),
		})
	}
	return opps
}

func (s *Service) resolveAuthor(ctx context.Context, platformUserID string, now time.Time) (*model.Author, error) {
	raw, err := s.adapter.GetAuthor(ctx, platformUserID)
	if err != nil {
		return nil, err
	}
	author := &model.Author{
		AuthorID:      raw.PlatformUserID,
		Handle:        raw.Handle,
		DisplayName:   raw.DisplayName,
		FollowerCount: raw.FollowerCount,
		LastSeenAt:    now,
	}
	if raw.Bio != "" {
		bio := raw.Bio
		author.Bio = &bio
	}
	if err := s.store.Authors().Upsert(ctx, author); err != nil {
		return nil, fmt.Errorf("upsert author %s: %w", platformUserID, err)
	}
	return author, nil
}

func (s *Service) score(p adapter.RawPost, author *model.Author, now time.Time) (model.Score, error) {
	recency, err := scoring.Recency(p.CreatedAt, now)
	if err != nil {
		return model.Score{}, err
	}
	impact, err := scoring.Impact(author.FollowerCount, p.Likes, p.Reposts)
	if err != nil {
		return model.Score{}, err
	}
	total, err := scoring.Composite(recency, impact)
	if err != nil {
		return model.Score{}, err
	}
	return model.Score{Recency: recency, Impact: impact, Total: total}, nil
}

// advanceWatermark persists the newest post time seen this run so the
// next fetch only considers newer activity. Runs that fetched nothing
// leave the watermark untouched.
func (s *Service) advanceWatermark(ctx context.Context, accountID string, t model.DiscoveryType, posts []adapter.RawPost) error {
	var latest time.Time
	for _, p := range posts {
		if p.CreatedAt.After(latest) {
			latest = p.CreatedAt
		}
	}
	if latest.IsZero() {
		return nil
	}
	return s.store.Watermarks().Put(ctx, accountID, t, latest)
}
