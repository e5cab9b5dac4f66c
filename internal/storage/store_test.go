package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/vetddx/internal/model"
)

func sampleRecord(species string) *model.CaseRecord {
	return &model.CaseRecord{
		Selector: "gemini",
		Case: model.Case{
			Species:  species,
			Age:      "4 years",
			Sex:      "FS",
			Weight:   4.2,
			Problems: []string{"vomiting"},
			Excluded: []string{},
		},
		Replies: []model.ModelReply{{Type: "text", Text: "## Red Flags\nnone", Model: "gemini", ModelName: "Google Gemini 2.5 Flash"}},
	}
}

// exerciseStore runs the same contract against any Store implementation.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	first := sampleRecord("cat")
	require.NoError(t, s.Save(ctx, first))
	require.NotEmpty(t, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	second := sampleRecord("dog")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", got.Case.Species)
	assert.Equal(t, "gemini", got.Selector)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "Google Gemini 2.5 Flash", got.Replies[0].ModelName)

	_, err = s.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	list, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	s, err := NewMemoryStore(8)
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(2)
	require.NoError(t, err)

	recs := []*model.CaseRecord{sampleRecord("a"), sampleRecord("b"), sampleRecord("c")}
	for _, r := range recs {
		require.NoError(t, s.Save(ctx, r))
	}

	assert.Equal(t, 2, s.Len())
	_, err = s.Get(ctx, recs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Case.Species)
	assert.Equal(t, "b", list[1].Case.Species)
}

func TestMemoryStoreReadsKeepOrder(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(4)
	require.NoError(t, err)

	a, b := sampleRecord("a"), sampleRecord("b")
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))
	_, err = s.Get(ctx, a.ID)
	require.NoError(t, err)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestNewMemoryStoreRejectsZeroSize(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("VETDDX_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("VETDDX_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	s, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))
	_, err = s.Pool.Exec(ctx, `TRUNCATE vetddx_cases`)
	require.NoError(t, err)

	exerciseStore(t, s)
}
