package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRequiresURL(t *testing.T) {
	pool, err := Connect(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "no database URL configured")
}

func TestConnectRejectsMalformedURL(t *testing.T) {
	pool, err := Connect(context.Background(), "://not-a-url")
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "creating connection pool")
}
