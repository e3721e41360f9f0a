package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStore_CreateAndRead(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Create(ctx, "", "My Resume", "modern")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, GuestUserID, rec.UserID)
	assert.Equal(t, "My Resume", rec.Title)
	assert.Equal(t, "modern", rec.Template)

	got, err := st.Read(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, types.ResumeData{}, got.Data)
}

func TestStore_ReadMissing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Read(context.Background(), "no-such-id")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_WriteRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Create(ctx, GuestUserID, "My Resume", "")
	require.NoError(t, err)

	rec.Title = "Renamed"
	rec.Data = types.ResumeData{
		Summary: "Go engineer",
		Experience: []types.ExperienceItem{
			{ID: "exp-1", Company: "Acme", Bullets: []string{"Shipped 3 services"}},
		},
	}
	rec.UpdatedAt = time.Now().UTC()
	require.NoError(t, st.Write(ctx, rec.ID, *rec))

	got, err := st.Read(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Go engineer", got.Data.Summary)
	require.Len(t, got.Data.Experience, 1)
	assert.Equal(t, []string{"Shipped 3 services"}, got.Data.Experience[0].Bullets)
}

func TestStore_WriteMissing(t *testing.T) {
	st := newTestStore(t)

	err := st.Write(context.Background(), "no-such-id", store.Record{ID: "no-such-id"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.Create(ctx, GuestUserID, "First", "")
	require.NoError(t, err)
	second, err := st.Create(ctx, GuestUserID, "Second", "")
	require.NoError(t, err)
	_, err = st.Create(ctx, "someone-else", "Not mine", "")
	require.NoError(t, err)

	// Touch the first so it sorts to the top.
	first.UpdatedAt = time.Now().UTC().Add(time.Second)
	require.NoError(t, st.Write(ctx, first.ID, *first))

	records, err := st.List(ctx, GuestUserID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
}

func TestStore_Delete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Create(ctx, GuestUserID, "Doomed", "")
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, rec.ID))
	_, err = st.Read(ctx, rec.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, st.Delete(ctx, rec.ID))
}

func TestStore_Duplicate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Create(ctx, GuestUserID, "Original", "")
	require.NoError(t, err)
	rec.Data = types.ResumeData{Summary: "keep me"}
	rec.UpdatedAt = time.Now().UTC()
	require.NoError(t, st.Write(ctx, rec.ID, *rec))

	dup, err := st.Duplicate(ctx, rec.ID)
	require.NoError(t, err)
	assert.NotEqual(t, rec.ID, dup.ID)
	assert.Equal(t, "Original (Copy)", dup.Title)

	got, err := st.Read(ctx, dup.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", got.Data.Summary)

	t.Run("missing source", func(t *testing.T) {
		_, err := st.Duplicate(ctx, "no-such-id")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
