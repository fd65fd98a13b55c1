package fake

import (
	"encoding/json"
	"testing"

	"github.com/craftstat/craftstat/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore keeps every written value for inspection.
type recordingStore struct {
	cache.Store
	values map[string][]byte
}

func (r *recordingStore) PutBytes(key string, value []byte) error {
	r.values[key] = value
	return nil
}

func TestGenerateData(t *testing.T) {
	store := &recordingStore{Store: cache.NewMemoryStore(), values: map[string][]byte{}}

	GenerateData(store, 25)

	require.NotEmpty(t, store.values)

	for address, data := range store.values {
		var rec cache.Record
		require.NoError(t, json.Unmarshal(data, &rec), "record for %s", address)

		assert.True(t, rec.Generated)
		assert.NotEmpty(t, rec.Favicon)
		assert.NotEmpty(t, rec.LastUpdatedDay)

		today := rec.Days[len(rec.Days)-1]
		assert.Positive(t, today.Samples)
		assert.GreaterOrEqual(t, today.PeakMax, today.PeakOnline)
	}
}
