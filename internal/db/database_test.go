package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, Ping(ctx, testDB))

	CleanupTestDB(testDB)
	assert.Error(t, Ping(ctx, testDB))
	assert.Error(t, Ping(ctx, nil))
}
