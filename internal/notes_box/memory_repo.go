package notes_box

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/2beens/householdnotes/internal/notes"
)

type MemoryRepo struct {
	mutex  sync.Mutex
	notes  map[int]notes.Note
	nextId int
	// injectable clock, for tests
	now func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return NewMemoryRepoWithClock(time.Now)
}

func NewMemoryRepoWithClock(now func() time.Time) *MemoryRepo {
	return &MemoryRepo{
		notes:  map[int]notes.Note{},
		nextId: 1,
		now:    now,
	}
}

func (r *MemoryRepo) Add(_ context.Context, author notes.Author, title string, body *string) (*notes.Note, error) {
	if title == "" {
		return nil, errors.New("note title empty")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := notes.NewTimestamp(r.now())
	note := notes.Note{
		Id:        r.nextId,
		Author:    author,
		Title:     title,
		Body:      copyString(body),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.notes[note.Id] = note
	r.nextId++

	return copyNote(note), nil
}

func (r *MemoryRepo) Get(_ context.Context, id int) (*notes.Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	return copyNote(note), nil
}

func (r *MemoryRepo) Update(_ context.Context, id int, patch notes.UpdateNotePayload) (*notes.Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Body != nil {
		note.Body = copyString(patch.Body)
	}

	// updated_at must move forward even when the clock did not
	updatedAt := r.now().UTC()
	if !updatedAt.After(note.UpdatedAt.Time) {
		updatedAt = note.UpdatedAt.Add(time.Microsecond)
	}
	note.UpdatedAt = notes.NewTimestamp(updatedAt)

	r.notes[id] = note
	return copyNote(note), nil
}

func (r *MemoryRepo) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.notes[id]; !ok {
		return ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}

// List returns notes newest first, matching the real backend's ordering.
func (r *MemoryRepo) List(_ context.Context, filter notes.Filter) ([]notes.Note, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	author, narrowed := filter.Author()
	list := make([]notes.Note, 0, len(r.notes))
	for _, n := range r.notes {
		if narrowed && n.Author != author {
			continue
		}
		list = append(list, *copyNote(n))
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt.Time) {
			return list[i].Id > list[j].Id
		}
		return list[i].CreatedAt.After(list[j].CreatedAt.Time)
	})

	return list, nil
}

func copyNote(n notes.Note) *notes.Note {
	n.Body = copyString(n.Body)
	return &n
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
