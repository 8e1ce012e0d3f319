package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetScope(ctx)
	assert.False(t, ok, "empty context carries no scope")

	scope := &Scope{}
	got, ok := GetScope(SetScope(ctx, scope))
	require.True(t, ok)
	assert.Same(t, scope, got)
}

func TestScopeCloseWithoutConnection(t *testing.T) {
	// A zero Scope has nothing to release.
	(&Scope{}).Close()
}
