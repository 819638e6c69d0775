package notes_sync_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/notes_sync"
	"github.com/2beens/householdnotes/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fakeNotes(author notes.Author, count int) []notes.Note {
	now := notes.NewTimestamp(time.Now())
	list := make([]notes.Note, 0, count)
	for i := 0; i < count; i++ {
		list = append(list, notes.Note{
			Id:        gofakeit.Number(1, 100000),
			Author:    author,
			Title:     gofakeit.Sentence(3),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return list
}

func TestSyncer_InitialState(t *testing.T) {
	ctrl := gomock.NewController(t)
	syncer := notes_sync.NewSyncer(NewMocknotesApi(ctrl), nil)

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusIdle, state.Status)
	assert.Equal(t, notes.FilterAll, state.Filter)
	assert.Empty(t, state.Notes)
	assert.NoError(t, state.Err)
	assert.False(t, state.Loading)
}

func TestSyncer_SetFilterLoads(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	metricsManager := metrics.NewTestManager()
	syncer := notes_sync.NewSyncer(api, metricsManager)
	ctx := context.Background()

	allNotes := fakeNotes(notes.AuthorBen, 3)
	api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(allNotes, nil).Times(1)

	var statuses []notes_sync.Status
	unsubscribe := syncer.Subscribe(func(state notes_sync.State) {
		statuses = append(statuses, state.Status)
	})
	defer unsubscribe()

	syncer.SetFilter(ctx, notes.FilterAll)
	// same filter again is a no-op
	syncer.SetFilter(ctx, notes.FilterAll)

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.False(t, state.Loading)
	assert.Equal(t, allNotes, state.Notes)
	assert.Equal(t, []notes_sync.Status{notes_sync.StatusLoading, notes_sync.StatusLoaded}, statuses)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRefreshes.WithLabelValues("loaded")))
}

func TestSyncer_FailedKeepsPreviousList(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)
	ctx := context.Background()

	loaded := fakeNotes(notes.AuthorWife, 2)
	gomock.InOrder(
		api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(loaded, nil),
		api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(nil, &notes.ApiError{
			Status:  http.StatusInternalServerError,
			Message: "database is down",
		}),
		api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(loaded[:1], nil),
	)

	syncer.SetFilter(ctx, notes.FilterAll)
	syncer.Refresh(ctx)

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusFailed, state.Status)
	assert.False(t, state.Loading)
	assert.Equal(t, loaded, state.Notes)
	assert.Equal(t, "database is down", state.ErrorMessage())
	assert.Equal(t, http.StatusInternalServerError, notes.ErrorStatus(state.Err))

	// dismissing the banner retries and clears the error
	syncer.Refresh(ctx)
	state = syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.NoError(t, state.Err)
	assert.Empty(t, state.ErrorMessage())
	assert.Equal(t, loaded[:1], state.Notes)
}

func TestSyncer_StaleFetchIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	metricsManager := metrics.NewTestManager()
	syncer := notes_sync.NewSyncer(api, metricsManager)
	ctx := context.Background()

	benNotes := fakeNotes(notes.AuthorBen, 2)
	wifeNotes := fakeNotes(notes.AuthorWife, 1)

	benStarted := make(chan struct{})
	releaseBen := make(chan struct{})
	api.EXPECT().
		List(gomock.Any(), notes.FilterBen).
		DoAndReturn(func(_ context.Context, _ notes.Filter) ([]notes.Note, error) {
			close(benStarted)
			<-releaseBen
			return benNotes, nil
		})
	api.EXPECT().List(gomock.Any(), notes.FilterWife).Return(wifeNotes, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		syncer.SetFilter(ctx, notes.FilterBen)
	}()
	<-benStarted

	syncer.SetFilter(ctx, notes.FilterWife)
	state := syncer.Snapshot()
	require.Equal(t, notes_sync.StatusLoaded, state.Status)
	require.Equal(t, wifeNotes, state.Notes)

	close(releaseBen)
	<-done

	// the late Ben result must not overwrite the Wife list
	state = syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.Equal(t, notes.FilterWife, state.Filter)
	assert.Equal(t, wifeNotes, state.Notes)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRefreshes.WithLabelValues("stale")))
}

func TestSyncer_StaysLoadingUntilLatestResolves(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	metricsManager := metrics.NewTestManager()
	syncer := notes_sync.NewSyncer(api, metricsManager)
	ctx := context.Background()

	wifeNotes := fakeNotes(notes.AuthorWife, 1)

	benStarted, releaseBen := make(chan struct{}), make(chan struct{})
	wifeStarted, releaseWife := make(chan struct{}), make(chan struct{})
	api.EXPECT().
		List(gomock.Any(), notes.FilterBen).
		DoAndReturn(func(_ context.Context, _ notes.Filter) ([]notes.Note, error) {
			close(benStarted)
			<-releaseBen
			return fakeNotes(notes.AuthorBen, 3), nil
		})
	api.EXPECT().
		List(gomock.Any(), notes.FilterWife).
		DoAndReturn(func(_ context.Context, _ notes.Filter) ([]notes.Note, error) {
			close(wifeStarted)
			<-releaseWife
			return wifeNotes, nil
		})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		syncer.SetFilter(ctx, notes.FilterBen)
	}()
	<-benStarted
	go func() {
		defer wg.Done()
		syncer.SetFilter(ctx, notes.FilterWife)
	}()
	<-wifeStarted

	// older fetch resolves first
	close(releaseBen)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metricsManager.CounterRefreshes.WithLabelValues("stale")) == 1
	}, time.Second, 10*time.Millisecond)
	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoading, state.Status)
	assert.Empty(t, state.Notes)

	close(releaseWife)
	wg.Wait()

	state = syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.Equal(t, wifeNotes, state.Notes)
}

func TestSyncer_MutationFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	metricsManager := metrics.NewTestManager()
	syncer := notes_sync.NewSyncer(api, metricsManager)
	ctx := context.Background()

	loaded := fakeNotes(notes.AuthorBen, 1)
	// exactly one fetch: the failed mutations must not trigger a refresh
	api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(loaded, nil).Times(1)
	syncer.SetFilter(ctx, notes.FilterAll)

	createErr := &notes.ApiError{Status: http.StatusUnprocessableEntity, Message: "String should have at least 1 character"}
	api.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, createErr)
	api.EXPECT().Update(gomock.Any(), 5, gomock.Any()).Return(nil, &notes.ApiError{Status: http.StatusNotFound, Message: "Note not found"})
	api.EXPECT().Delete(gomock.Any(), 6).Return(&notes.ApiError{Message: "connection refused"})

	_, err := syncer.Create(ctx, notes.CreateNotePayload{Author: notes.AuthorBen, Title: "x"})
	assert.Same(t, createErr, err)

	_, err = syncer.Update(ctx, 5, notes.UpdateNotePayload{Title: notes.StringPtr("y")})
	assert.True(t, notes.IsNotFound(err))

	err = syncer.Delete(ctx, 6)
	assert.Equal(t, 0, notes.ErrorStatus(err))

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.NoError(t, state.Err)
	assert.Equal(t, loaded, state.Notes)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterMutations.WithLabelValues("create", "failed")))
}

func TestSyncer_MutationsRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)
	ctx := context.Background()

	now := notes.NewTimestamp(time.Now())
	created := &notes.Note{Id: 10, Author: notes.AuthorWife, Title: "bins", CreatedAt: now, UpdatedAt: now}
	updated := &notes.Note{Id: 10, Author: notes.AuthorWife, Title: "bins tonight", CreatedAt: now, UpdatedAt: now}

	gomock.InOrder(
		api.EXPECT().List(gomock.Any(), notes.FilterWife).Return([]notes.Note{}, nil),
		api.EXPECT().Create(gomock.Any(), notes.CreateNotePayload{Author: notes.AuthorWife, Title: "bins"}).Return(created, nil),
		api.EXPECT().List(gomock.Any(), notes.FilterWife).Return([]notes.Note{*created}, nil),
		api.EXPECT().Update(gomock.Any(), 10, notes.UpdateNotePayload{Title: notes.StringPtr("bins tonight")}).Return(updated, nil),
		api.EXPECT().List(gomock.Any(), notes.FilterWife).Return([]notes.Note{*updated}, nil),
		api.EXPECT().Delete(gomock.Any(), 10).Return(nil),
		api.EXPECT().List(gomock.Any(), notes.FilterWife).Return([]notes.Note{}, nil),
	)

	syncer.SetFilter(ctx, notes.FilterWife)
	assert.Empty(t, syncer.Snapshot().Notes)

	note, err := syncer.Create(ctx, notes.CreateNotePayload{Author: notes.AuthorWife, Title: "bins"})
	require.NoError(t, err)
	assert.Equal(t, created, note)
	require.Len(t, syncer.Snapshot().Notes, 1)

	note, err = syncer.Update(ctx, 10, notes.UpdateNotePayload{Title: notes.StringPtr("bins tonight")})
	require.NoError(t, err)
	assert.Equal(t, "bins tonight", note.Title)
	assert.Equal(t, "bins tonight", syncer.Snapshot().Notes[0].Title)

	require.NoError(t, syncer.Delete(ctx, 10))
	assert.Empty(t, syncer.Snapshot().Notes)
}

func TestSyncer_RefreshFailureAfterMutationIsCaptured(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)
	ctx := context.Background()

	api.EXPECT().Delete(gomock.Any(), 3).Return(nil)
	api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(nil, &notes.ApiError{Status: http.StatusBadGateway, Message: "Bad Gateway"})

	require.NoError(t, syncer.Delete(ctx, 3))

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusFailed, state.Status)
	assert.Equal(t, "Bad Gateway", state.ErrorMessage())
}

func TestSyncer_CloseDropsInFlightFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	metricsManager := metrics.NewTestManager()
	syncer := notes_sync.NewSyncer(api, metricsManager)
	ctx := context.Background()

	started, release := make(chan struct{}), make(chan struct{})
	api.EXPECT().
		List(gomock.Any(), notes.FilterAll).
		DoAndReturn(func(_ context.Context, _ notes.Filter) ([]notes.Note, error) {
			close(started)
			<-release
			return fakeNotes(notes.AuthorBen, 2), nil
		})

	var mutex sync.Mutex
	var calls int
	syncer.Subscribe(func(notes_sync.State) {
		mutex.Lock()
		defer mutex.Unlock()
		calls++
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		syncer.Refresh(ctx)
	}()
	<-started

	syncer.Close()
	close(release)
	<-done

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoading, state.Status)
	assert.Empty(t, state.Notes)

	mutex.Lock()
	assert.Equal(t, 1, calls, "only the loading transition before close")
	mutex.Unlock()
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRefreshes.WithLabelValues("discarded")))

	// nothing is fetched after close
	syncer.Refresh(ctx)
	syncer.SetFilter(ctx, notes.FilterBen)
}

func TestSyncer_Unsubscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)
	ctx := context.Background()

	api.EXPECT().List(gomock.Any(), gomock.Any()).Return([]notes.Note{}, nil).Times(2)

	var calls int
	unsubscribe := syncer.Subscribe(func(notes_sync.State) { calls++ })
	syncer.Refresh(ctx)
	assert.Equal(t, 2, calls)

	unsubscribe()
	syncer.Refresh(ctx)
	assert.Equal(t, 2, calls)
}

func TestSyncer_SnapshotIsACopy(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)

	api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(fakeNotes(notes.AuthorBen, 1), nil)
	syncer.Refresh(context.Background())

	state := syncer.Snapshot()
	state.Notes[0].Title = "changed by the caller"
	assert.NotEqual(t, "changed by the caller", syncer.Snapshot().Notes[0].Title)
}

func TestSyncer_SnapshotCopiesBodies(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)

	list := fakeNotes(notes.AuthorWife, 1)
	body := "2 liters"
	list[0].Body = &body
	api.EXPECT().List(gomock.Any(), notes.FilterAll).Return(list, nil)
	syncer.Refresh(context.Background())

	state := syncer.Snapshot()
	*state.Notes[0].Body = "changed by the caller"

	again := syncer.Snapshot()
	require.NotNil(t, again.Notes[0].Body)
	assert.Equal(t, "2 liters", *again.Notes[0].Body)
	assert.Equal(t, "changed by the caller", *state.Notes[0].Body)
}

func TestSyncer_ListenersNeverSeeAnOlderState(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)
	ctx := context.Background()

	api.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter notes.Filter) ([]notes.Note, error) {
			return fakeNotes(notes.Author(filter), 1), nil
		}).
		AnyTimes()

	// the first delivery is slow, so the Ben loading state is still being
	// handed out while the Wife fetch runs
	firstCall, release := make(chan struct{}), make(chan struct{})
	var mutex sync.Mutex
	var seen []notes_sync.State
	syncer.Subscribe(func(state notes_sync.State) {
		mutex.Lock()
		seen = append(seen, state)
		first := len(seen) == 1
		mutex.Unlock()
		if first {
			close(firstCall)
			<-release
		}
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		syncer.SetFilter(ctx, notes.FilterBen)
	}()
	<-firstCall
	go func() {
		defer wg.Done()
		syncer.SetFilter(ctx, notes.FilterWife)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.Equal(t, notes.FilterWife, state.Filter)

	mutex.Lock()
	defer mutex.Unlock()
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.Equal(t, state.Status, last.Status)
	assert.Equal(t, state.Filter, last.Filter)

	// once the Wife filter shows up, Ben states never come back
	wifeSeen := false
	for _, s := range seen {
		if s.Filter == notes.FilterWife {
			wifeSeen = true
			continue
		}
		assert.False(t, wifeSeen, "state for %s delivered after Wife", s.Filter.Label())
	}
}

func TestSyncer_ConcurrentRefreshes(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMocknotesApi(ctrl)
	syncer := notes_sync.NewSyncer(api, nil)
	ctx := context.Background()

	api.EXPECT().
		List(gomock.Any(), notes.FilterAll).
		DoAndReturn(func(_ context.Context, _ notes.Filter) ([]notes.Note, error) {
			time.Sleep(time.Duration(gofakeit.Number(0, 5)) * time.Millisecond)
			return fakeNotes(notes.AuthorBen, 1), nil
		}).
		Times(20)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			syncer.Refresh(ctx)
		}()
	}
	wg.Wait()

	state := syncer.Snapshot()
	assert.Equal(t, notes_sync.StatusLoaded, state.Status)
	assert.False(t, state.Loading)
	assert.Len(t, state.Notes, 1)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", notes_sync.StatusIdle.String())
	assert.Equal(t, "loading", notes_sync.StatusLoading.String())
	assert.Equal(t, "loaded", notes_sync.StatusLoaded.String())
	assert.Equal(t, "failed", notes_sync.StatusFailed.String())
	assert.Equal(t, "unknown", notes_sync.Status(42).String())
	assert.Empty(t, notes_sync.State{}.ErrorMessage())
	assert.Equal(t, "boom", notes_sync.State{Err: errors.New("boom")}.ErrorMessage())
}
