// Package noop registers an adapter that never returns posts. It keeps
// the local build target runnable without platform credentials; every
// scheduled run completes as an empty fetch.
package noop

import (
	"context"
	"fmt"

	"github.com/replyscout/replyscout/internal/adapter"
)

// Name is the registry key for the no-op adapter.
const Name = "noop"

func init() {
	adapter.Register(Name, func() (adapter.PlatformAdapter, error) {
		return Adapter{}, nil
	})
}

// Adapter implements adapter.PlatformAdapter with empty results.
type Adapter struct{}

func (Adapter) FetchReplies(ctx context.Context, opts adapter.FetchOptions) ([]adapter.RawPost, error) {
	return nil, nil
}

func (Adapter) SearchPosts(ctx context.Context, keywords []string, opts adapter.FetchOptions) ([]adapter.RawPost, error) {
	return nil, nil
}

func (Adapter) GetAuthor(ctx context.Context, platformUserID string) (*adapter.RawAuthor, error) {
	return nil, adapter.NotFound(fmt.Errorf("noop adapter has no author %s", platformUserID))
}
