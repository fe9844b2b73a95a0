package persistence

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Submitted map[string]int64 `json:"submitted"`
	Count     int              `json:"count"`
}

func TestJSONFileStoreRoundTrip(t *testing.T) {
	svc := NewJSONFileService(t.TempDir())
	store := svc.NewStore("redeem", "0xSafe/1", "submitted")

	var empty sample
	assert.ErrorIs(t, store.Load(&empty), ErrNotExists)

	in := sample{Submitted: map[string]int64{"0xcond": 1700000000}, Count: 2}
	require.NoError(t, store.Save(in))

	path := store.(*JSONFileStore).Path()
	assert.False(t, strings.ContainsAny(path[strings.LastIndex(path, "/")+1:], ":/"))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	var out sample
	require.NoError(t, store.Load(&out))
	assert.Equal(t, in, out)
}

func TestMemoryService(t *testing.T) {
	svc := NewMemoryService()
	store := svc.NewStore("redeem", "id", "tag")
	var out sample
	assert.ErrorIs(t, store.Load(&out), ErrNotExists)
	require.NoError(t, store.Save(sample{Count: 3}))
	require.NoError(t, svc.NewStore("redeem", "id", "tag").Load(&out))
	assert.Equal(t, 3, out.Count)
}
