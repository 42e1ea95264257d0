package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/profilematch/storage"
)

func collectBatches(t *testing.T, it *ProfileIterator, after string) [][]string {
	t.Helper()
	var batches [][]string
	err := it.ForEach(context.Background(), after, func(batch []*storage.StoredProfile) error {
		ids := make([]string, len(batch))
		for i, p := range batch {
			ids[i] = p.ID
		}
		batches = append(batches, ids)
		return nil
	})
	require.NoError(t, err)
	return batches
}

func TestProfileIterator_Batches(t *testing.T) {
	repo, _ := setupTestDB(t)
	seedProfiles(t, repo, 7)

	batches := collectBatches(t, NewProfileIterator(repo, 3), "")
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)
}

func TestProfileIterator_ResumesAfterID(t *testing.T) {
	repo, _ := setupTestDB(t)
	stored := seedProfiles(t, repo, 5)

	batches := collectBatches(t, NewProfileIterator(repo, 10), stored[1].ID)
	require.Len(t, batches, 1)
	assert.Equal(t, []string{stored[2].ID, stored[3].ID, stored[4].ID}, batches[0])
}

func TestProfileIterator_Empty(t *testing.T) {
	repo, _ := setupTestDB(t)
	assert.Empty(t, collectBatches(t, NewProfileIterator(repo, 10), ""))
}

func TestProfileIterator_DefaultBatchSize(t *testing.T) {
	repo, _ := setupTestDB(t)
	it := NewProfileIterator(repo, 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestProfileIterator_StopsOnError(t *testing.T) {
	repo, _ := setupTestDB(t)
	seedProfiles(t, repo, 6)

	calls := 0
	boom := errors.New("boom")
	err := NewProfileIterator(repo, 2).ForEach(context.Background(), "", func(batch []*storage.StoredProfile) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestProfileIterator_Cancelled(t *testing.T) {
	repo, _ := setupTestDB(t)
	seedProfiles(t, repo, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewProfileIterator(repo, 1).ForEach(ctx, "", func([]*storage.StoredProfile) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
