//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/notes_sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) countNotesRows() int {
	var count int
	require.NoError(s.T(), s.DB.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count))
	return count
}

func (s *IntegrationTestSuite) TestNotesApi() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t := s.T()
	api := notes.NewApi(serverEndpoint, s.httpClient, nil)

	_, err := s.DB.Exec("DELETE FROM notes")
	require.NoError(t, err)

	require.NoError(t, api.Health(ctx))

	list, err := api.List(ctx, notes.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := api.Create(ctx, notes.CreateNotePayload{
		Author: notes.AuthorBen,
		Title:  "fix the fence",
		Body:   notes.StringPtr("needs 4 boards"),
	})
	require.NoError(t, err)
	assert.Equal(t, notes.AuthorBen, created.Author)
	assert.Equal(t, 1, s.countNotesRows())

	var storedTitle string
	require.NoError(t, s.DB.QueryRow("SELECT title FROM notes WHERE id = $1", created.Id).Scan(&storedTitle))
	assert.Equal(t, "fix the fence", storedTitle)

	_, err = api.Create(ctx, notes.CreateNotePayload{Author: notes.AuthorWife, Title: "water plants"})
	require.NoError(t, err)

	wifeNotes, err := api.List(ctx, notes.FilterWife)
	require.NoError(t, err)
	require.Len(t, wifeNotes, 1)
	assert.Equal(t, "water plants", wifeNotes[0].Title)

	allNotes, err := api.List(ctx, notes.FilterAll)
	require.NoError(t, err)
	require.Len(t, allNotes, 2)
	// newest first
	assert.Equal(t, "water plants", allNotes[0].Title)

	updated, err := api.Update(ctx, created.Id, notes.UpdateNotePayload{Title: notes.StringPtr("fence fixed")})
	require.NoError(t, err)
	assert.Equal(t, "fence fixed", updated.Title)
	require.NotNil(t, updated.Body)
	assert.Equal(t, "needs 4 boards", *updated.Body)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt.Time))

	require.NoError(t, api.Delete(ctx, created.Id))
	assert.Equal(t, 1, s.countNotesRows())

	err = api.Delete(ctx, created.Id)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, notes.ErrorStatus(err))
	assert.Equal(t, "Note not found", notes.ErrorMessage(err))
}

func (s *IntegrationTestSuite) TestNotesSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t := s.T()
	_, err := s.DB.Exec("DELETE FROM notes")
	require.NoError(t, err)

	syncer := notes_sync.NewSyncer(notes.NewApi(serverEndpoint, s.httpClient, nil), nil)
	defer syncer.Close()

	syncer.SetFilter(ctx, notes.FilterBen)
	state := syncer.Snapshot()
	require.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.Empty(t, state.Notes)

	note, err := syncer.Create(ctx, notes.CreateNotePayload{Author: notes.AuthorBen, Title: "oil change"})
	require.NoError(t, err)

	state = syncer.Snapshot()
	require.Len(t, state.Notes, 1)
	assert.Equal(t, note.Id, state.Notes[0].Id)

	// another author's note is not part of the Ben list
	_, err = syncer.Create(ctx, notes.CreateNotePayload{Author: notes.AuthorWife, Title: "book flights"})
	require.NoError(t, err)
	assert.Len(t, syncer.Snapshot().Notes, 1)

	syncer.SetFilter(ctx, notes.FilterAll)
	assert.Len(t, syncer.Snapshot().Notes, 2)

	_, err = syncer.Create(ctx, notes.CreateNotePayload{Author: "Grandma", Title: "hi"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, notes.ErrorStatus(err))
	assert.Len(t, syncer.Snapshot().Notes, 2)
}
