package statusdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/openacq/metamigrate/internal/errors"
)

func sampleRow(v1ID string) Row {
	return Row{
		V1ID:            v1ID,
		V2ID:            "v2-" + v1ID,
		UpgraderVersion: "0.1.0",
		LastModified:    time.Date(2023, 10, 18, 16, 0, 0, 0, time.UTC),
		Status:          StatusSuccess,
	}
}

func TestOpen_SchemeDispatch(t *testing.T) {
	store, err := Open("memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open("")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = Open("mysql://localhost")
	assert.ErrorIs(t, err, merrors.ErrUnsupported)
}

func TestMemoryStore_RecordAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleRow("a")))

	row, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v2-a", row.V2ID)
	assert.False(t, row.Failed())

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, merrors.ErrNotFound)
}

func TestMemoryStore_RecordOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleRow("a")))

	updated := sampleRow("a")
	updated.Status = "error: validation failed"
	require.NoError(t, store.Record(ctx, updated))

	row, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, row.Failed())

	rows, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMemoryStore_ListSorted(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleRow("b")))
	require.NoError(t, store.Record(ctx, sampleRow("a")))

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].V1ID)
	assert.Equal(t, "b", rows[1].V1ID)
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	err := NewMemoryStore().Record(context.Background(), Row{})
	assert.ErrorIs(t, err, merrors.ErrMalformed)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "status.db")
	store, err := Open(dsn)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, sampleRow("a")))
	require.NoError(t, store.Record(ctx, sampleRow("b")))

	updated := sampleRow("a")
	updated.Status = "error: no subject"
	require.NoError(t, store.Record(ctx, updated))

	row, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "error: no subject", row.Status)
	assert.True(t, row.Failed())

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].V1ID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, merrors.ErrNotFound)
}
