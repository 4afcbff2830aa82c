// Package adapter defines the platform capability set the discovery engine
// consumes. One implementation exists per social platform; the engine never
// depends on a concrete wire protocol.
package adapter

import (
	"context"
	"time"
)

// FetchOptions bound an incremental fetch.
type FetchOptions struct {
	// Since restricts results to posts created after this instant.
	// Nil means the adapter's default window.
	Since *time.Time
	// Limit caps the number of returned posts. Zero means adapter default.
	Limit int
}

// RawPost is a candidate post as returned by a platform adapter.
type RawPost struct {
	PlatformPostID   string    `json:"platformPostId"`
	URL              string    `json:"url"`
	Text             string    `json:"text"`
	CreatedAt        time.Time `json:"createdAt"`
	AuthorPlatformID string    `json:"authorPlatformId"`
	Likes            int64     `json:"likes"`
	Reposts          int64     `json:"reposts"`
	Replies          int64     `json:"replies"`
}

// RawAuthor is a post creator's profile as returned by a platform adapter.
type RawAuthor struct {
	PlatformUserID string `json:"platformUserId"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"displayName"`
	Bio            string `json:"bio"`
	FollowerCount  int64  `json:"followerCount"`
}

// PlatformAdapter is the capability set the engine requires from a platform.
// Implementations return *Error for classified failures.
type PlatformAdapter interface {
	// FetchReplies returns replies to the connected account's own posts.
	FetchReplies(ctx context.Context, opts FetchOptions) ([]RawPost, error)
	// SearchPosts returns posts matching any of the given keywords.
	SearchPosts(ctx context.Context, keywords []string, opts FetchOptions) ([]RawPost, error)
	// GetAuthor resolves a platform user id to a profile.
	GetAuthor(ctx context.Context, platformUserID string) (*RawAuthor, error)
}
