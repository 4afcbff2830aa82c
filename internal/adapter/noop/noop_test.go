package noop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyscout/replyscout/internal/adapter"
)

func TestNoopRegistersItself(t *testing.T) {
	assert.Contains(t, adapter.Registered(), Name)

	a, err := adapter.New(Name)
	require.NoError(t, err)

	posts, err := a.FetchReplies(context.Background(), adapter.FetchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)

	posts, err = a.SearchPosts(context.Background(), []string{"golang"}, adapter.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = a.GetAuthor(context.Background(), "did:plc:anyone")
	require.Error(t, err)
	assert.Equal(t, adapter.KindNotFound, adapter.Classify(err))
}
