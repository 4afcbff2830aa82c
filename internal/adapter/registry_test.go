package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct{}

func (stubAdapter) FetchReplies(context.Context, FetchOptions) ([]RawPost, error) { return nil, nil }
func (stubAdapter) SearchPosts(context.Context, []string, FetchOptions) ([]RawPost, error) {
	return nil, nil
}
func (stubAdapter) GetAuthor(context.Context, string) (*RawAuthor, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	Register("stubplatform", func() (PlatformAdapter, error) {
		return stubAdapter{}, nil
	})

	assert.Contains(t, Registered(), "stubplatform")

	a, err := New("stubplatform")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = New("unregistered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dupmeplatform", func() (PlatformAdapter, error) { return stubAdapter{}, nil })
	assert.Panics(t, func() {
		Register("dupmeplatform", func() (PlatformAdapter, error) { return stubAdapter{}, nil })
	})
}
