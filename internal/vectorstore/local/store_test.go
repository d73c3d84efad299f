package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor-go/internal/model"
	"mentor-go/internal/vectorstore"
)

func testDocs() ([]model.Document, [][]float32) {
	docs := []model.Document{
		model.NewDocument("fundraising meeting notes", "meeting.txt"),
		model.NewDocument("investor email about product-market fit", "email.txt"),
		model.NewDocument("calendar entry for demo day", "calendar.txt"),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return docs, vectors
}

func TestCreateAndSearch(t *testing.T) {
	s := New(t.TempDir())
	docs, vectors := testDocs()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, docs, vectors, "nomic-embed-text"))
	assert.True(t, s.Exists(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := s.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "meeting.txt", results[0].Document.Source())
	assert.Equal(t, "email.txt", results[1].Document.Source())
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchKLargerThanIndex(t *testing.T) {
	s := New(t.TempDir())
	docs, vectors := testDocs()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, docs, vectors, "m"))
	results, err := s.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestLoadPersistedIndex(t *testing.T) {
	dir := t.TempDir()
	docs, vectors := testDocs()
	ctx := context.Background()

	first := New(dir)
	require.NoError(t, first.Create(ctx, docs, vectors, "nomic-embed-text"))

	// 新实例从磁盘加载，检索结果保持一致
	second := New(dir)
	assert.True(t, second.Exists(ctx))
	require.NoError(t, second.Load(ctx, "nomic-embed-text"))

	results, err := second.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "email.txt", results[0].Document.Source())
}

func TestLoadModelMismatch(t *testing.T) {
	dir := t.TempDir()
	docs, vectors := testDocs()
	ctx := context.Background()

	first := New(dir)
	require.NoError(t, first.Create(ctx, docs, vectors, "nomic-embed-text"))

	second := New(dir)
	err := second.Load(ctx, "text-embedding-3-small")
	assert.ErrorIs(t, err, vectorstore.ErrModelMismatch)
}

func TestLoadMissingIndex(t *testing.T) {
	s := New(t.TempDir())
	err := s.Load(context.Background(), "m")
	assert.ErrorIs(t, err, vectorstore.ErrNotExists)
}

func TestOperationsBeforeLoad(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	_, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, vectorstore.ErrNotLoaded)

	err = s.Add(ctx, []model.Document{model.NewDocument("x", "x.txt")}, [][]float32{{1, 0, 0}})
	assert.ErrorIs(t, err, vectorstore.ErrNotLoaded)

	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, vectorstore.ErrNotLoaded)
}

func TestAddAppendsToIndex(t *testing.T) {
	s := New(t.TempDir())
	docs, vectors := testDocs()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, docs, vectors, "m"))
	require.NoError(t, s.Add(ctx,
		[]model.Document{model.NewDocument("new pitch deck", "deck.txt")},
		[][]float32{{0.5, 0.5, 0}},
	))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestCreateRejectsMismatchedLengths(t *testing.T) {
	s := New(t.TempDir())
	docs, _ := testDocs()

	err := s.Create(context.Background(), docs, [][]float32{{1, 0, 0}}, "m")
	assert.Error(t, err)
}

func TestCreateRejectsInconsistentDimensions(t *testing.T) {
	s := New(t.TempDir())
	docs := []model.Document{
		model.NewDocument("a", "a.txt"),
		model.NewDocument("b", "b.txt"),
	}

	err := s.Create(context.Background(), docs, [][]float32{{1, 0}, {1, 0, 0}}, "m")
	assert.Error(t, err)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	s := New(t.TempDir())
	docs := []model.Document{
		model.NewDocument("first", "first.txt"),
		model.NewDocument("second", "second.txt"),
	}
	vectors := [][]float32{{1, 0}, {1, 0}}
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, docs, vectors, "m"))
	results, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "first.txt", results[0].Document.Source())
	assert.Equal(t, "second.txt", results[1].Document.Source())
}
