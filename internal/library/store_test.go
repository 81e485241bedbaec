// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.LibraryConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "graph databases", "# Literature Review: graph databases\n\nbody", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "graph databases", got.Topic)
	assert.Equal(t, 2, got.DocCount)
	assert.Contains(t, got.Content, "body")
}

func TestGetUnknownID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestSaveRejectsEmptyFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "", "content", 0)
	assert.Error(t, err)

	_, err = s.Save(ctx, "topic", "", 0)
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "first topic", "first content", 1)
	require.NoError(t, err)
	second, err := s.Save(ctx, "second topic", "second content", 1)
	require.NoError(t, err)

	reports, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID)
	assert.Empty(t, reports[0].Content, "list returns metadata only")
}

func TestSearchFullText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, "graph databases", "A report about storage engines and traversals.", 3)
	require.NoError(t, err)
	_, err = s.Save(ctx, "quantum sensing", "A report about qubits.", 1)
	require.NoError(t, err)

	results, err := s.Search(ctx, "traversals")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, saved.ID, results[0].ID)

	results, err = s.Search(ctx, "quantum")
	require.NoError(t, err)
	assert.Len(t, results, 1, "topic column is searchable too")
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(types.LibraryConfig{Dir: dir})
	require.NoError(t, err)
	_, err = s1.Save(context.Background(), "topic", "content", 1)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(types.LibraryConfig{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	reports, err := s2.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}
