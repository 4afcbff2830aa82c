package model

import "time"

// DiscoveryType selects how candidate posts are found for an account.
type DiscoveryType string

const (
	// DiscoveryReplies polls replies to the account's own posts.
	DiscoveryReplies DiscoveryType = "replies"
	// DiscoverySearch polls keyword search results.
	DiscoverySearch DiscoveryType = "search"
)

// Valid reports whether t is a known discovery type.
func (t DiscoveryType) Valid() bool {
	return t == DiscoveryReplies || t == DiscoverySearch
}

// Account statuses.
const (
	AccountActive   = "active"
	AccountInactive = "inactive"
)

// DiscoverySchedule is one recurring polling job configuration for an
// account. At most one schedule exists per (account, type); schedules are
// independently enabled and independently timed.
type DiscoverySchedule struct {
	Type     DiscoveryType `json:"type"`
	CronExpr string        `json:"cronExpression"`
	Enabled  bool          `json:"enabled"`
	Keywords []string      `json:"keywords,omitempty"`
}

// Account is one platform connection. Accounts are created by the setup
// flow; the engine only reads them.
type Account struct {
	AccountID    string              `json:"accountId"`
	Platform     string              `json:"platform"`
	Handle       string              `json:"handle"`
	Status       string              `json:"status"`
	Schedules    []DiscoverySchedule `json:"schedules"`
	CreationTime time.Time           `json:"creationTime"`
}

// Schedule returns the schedule for the given discovery type, if configured.
func (a *Account) Schedule(t DiscoveryType) (DiscoverySchedule, bool) {
	for _, s := range a.Schedules {
		if s.Type == t {
			return s, true
		}
	}
	return DiscoverySchedule{}, false
}

// Score is the composite relevance score attached to an opportunity.
// Recency and Impact are each in [0,100]; Total is their weighted sum.
type Score struct {
	Recency float64 `json:"recency"`
	Impact  float64 `json:"impact"`
	Total   float64 `json:"total"`
}

// OpportunityStatus is the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	OpportunityPending   OpportunityStatus = "pending"
	OpportunityResponded OpportunityStatus = "responded"
	OpportunityDismissed OpportunityStatus = "dismissed"
	OpportunityExpired   OpportunityStatus = "expired"
)

// Valid reports whether s is a known opportunity status.
func (s OpportunityStatus) Valid() bool {
	switch s {
	case OpportunityPending, OpportunityResponded, OpportunityDismissed, OpportunityExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is legal.
// Only pending opportunities move; expired is terminal, and responded or
// dismissed happen exclusively through external action.
func (s OpportunityStatus) CanTransitionTo(next OpportunityStatus) bool {
	if s != OpportunityPending {
		return false
	}
	return next == OpportunityResponded || next == OpportunityDismissed || next == OpportunityExpired
}

// Opportunity is a discovered candidate post queued for possible response.
// Unique per (AccountID, PlatformPostID); re-discovery never duplicates.
type Opportunity struct {
	OpportunityID  string            `json:"opportunityId"`
	AccountID      string            `json:"accountId"`
	AuthorID       string            `json:"authorId"`
	PlatformPostID string            `json:"platformPostId"`
	Text           string            `json:"text"`
	URL            string            `json:"url"`
	PostCreatedAt  time.Time         `json:"postCreatedAt"`
	Likes          int64             `json:"likes"`
	Reposts        int64             `json:"reposts"`
	Replies        int64             `json:"replies"`
	Score          Score             `json:"score"`
	Status         OpportunityStatus `json:"status"`
	DiscoveredAt   time.Time         `json:"discoveredAt"`
	ExpiresAt      time.Time         `json:"expiresAt"`
}

// Author is the denormalized profile of a post's creator, kept fresh via
// upsert-on-discovery and never deleted by the engine.
type Author struct {
	AuthorID      string    `json:"authorId"`
	Handle        string    `json:"handle"`
	DisplayName   string    `json:"displayName"`
	Bio           *string   `json:"bio,omitempty"`
	FollowerCount int64     `json:"followerCount"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
}

// ListQueueRequest captures filters for the opportunity queue query.
// Results are ordered by total score descending. A pending filter never
// returns rows whose ExpiresAt has passed, even before a sweep runs.
type ListQueueRequest struct {
	AccountID string
	Status    *OpportunityStatus
	Now       time.Time
	Limit     int
}
