package notes_sync

import (
	"context"
	"sync"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/telemetry/metrics"
	"github.com/2beens/householdnotes/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=notes_sync_test

type notesApi interface {
	List(ctx context.Context, filter notes.Filter) ([]notes.Note, error)
	Create(ctx context.Context, payload notes.CreateNotePayload) (*notes.Note, error)
	Update(ctx context.Context, id int, payload notes.UpdateNotePayload) (*notes.Note, error)
	Delete(ctx context.Context, id int) error
}

// Syncer keeps one consumer's view of the notes list in step with the backend.
// Every mutation is followed by a full re-fetch for the current filter.
// Fetches are tagged with a sequence number and only the latest issued one
// may change the state; older results are dropped.
// Every state change gets a version too, and listeners never see an older
// version after a newer one.
type Syncer struct {
	api     notesApi
	metrics *metrics.Manager

	mutex     sync.Mutex
	state     State
	version   uint64
	mounted   bool
	closed    bool
	seq       uint64
	listeners map[int]Listener
	nextId    int

	notifyMutex sync.Mutex
	delivered   uint64
}

func NewSyncer(api notesApi, metricsManager *metrics.Manager) *Syncer {
	return &Syncer{
		api:     api,
		metrics: metricsManager,
		state: State{
			Status: StatusIdle,
			Filter: notes.FilterAll,
		},
		listeners: map[int]Listener{},
	}
}

// SetFilter loads the list for filter. The first call always fetches,
// later calls fetch only when the filter actually changes.
func (s *Syncer) SetFilter(ctx context.Context, filter notes.Filter) {
	s.mutex.Lock()
	if s.closed || (s.mounted && s.state.Filter == filter) {
		s.mutex.Unlock()
		return
	}
	s.mounted = true
	s.state.Filter = filter
	s.mutex.Unlock()

	s.fetch(ctx)
}

// Refresh re-fetches the list for the current filter. Errors end up in the state.
func (s *Syncer) Refresh(ctx context.Context) {
	s.mutex.Lock()
	s.mounted = true
	s.mutex.Unlock()

	s.fetch(ctx)
}

func (s *Syncer) Create(ctx context.Context, payload notes.CreateNotePayload) (*notes.Note, error) {
	note, err := s.api.Create(ctx, payload)
	s.observeMutation("create", err)
	if err != nil {
		return nil, err
	}
	s.fetch(ctx)
	return note, nil
}

func (s *Syncer) Update(ctx context.Context, id int, payload notes.UpdateNotePayload) (*notes.Note, error) {
	note, err := s.api.Update(ctx, id, payload)
	s.observeMutation("update", err)
	if err != nil {
		return nil, err
	}
	s.fetch(ctx)
	return note, nil
}

func (s *Syncer) Delete(ctx context.Context, id int) error {
	err := s.api.Delete(ctx, id)
	s.observeMutation("delete", err)
	if err != nil {
		return err
	}
	s.fetch(ctx)
	return nil
}

func (s *Syncer) Snapshot() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to be called after every state change.
// Listeners run synchronously, one state at a time, and must not call back
// into SetFilter, Refresh or the mutations. The returned func removes fn again.
func (s *Syncer) Subscribe(fn Listener) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return func() {}
	}

	id := s.nextId
	s.nextId++
	s.listeners[id] = fn

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.listeners, id)
	}
}

// Close detaches the syncer: listeners are dropped and any fetch still in flight
// is ignored when it resolves.
func (s *Syncer) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	s.listeners = map[int]Listener{}
}

func (s *Syncer) fetch(ctx context.Context) {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	filter := s.state.Filter
	s.state.Status = StatusLoading
	s.state.Loading = true
	s.state.Err = nil
	s.version++
	state, version, listeners := s.state.clone(), s.version, s.listenersLocked()
	s.mutex.Unlock()

	s.notify(listeners, state, version)

	ctx, span := tracing.GlobalTracer.Start(ctx, "notesSync.fetch")
	span.SetAttributes(
		attribute.String("notes.filter", filter.Label()),
		attribute.Int64("notes.fetch_seq", int64(seq)),
	)
	list, err := s.api.List(ctx, filter)
	tracing.EndSpanWithErrCheck(span, err)

	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		log.Debugf("notes sync: fetch %d resolved after close, dropped", seq)
		s.observeRefresh("discarded")
		return
	}
	if seq != s.seq {
		latest := s.seq
		s.mutex.Unlock()
		log.Debugf("notes sync: fetch %d is stale (latest %d), dropped", seq, latest)
		s.observeRefresh("stale")
		return
	}

	s.state.Loading = false
	if err != nil {
		s.state.Status = StatusFailed
		s.state.Err = err
	} else {
		s.state.Status = StatusLoaded
		s.state.Notes = list
	}
	s.version++
	state, version, listeners = s.state.clone(), s.version, s.listenersLocked()
	s.mutex.Unlock()

	if err != nil {
		log.Debugf("notes sync: fetch [%s] failed: %s", filter.Label(), err)
		s.observeRefresh("failed")
	} else {
		log.Tracef("notes sync: fetch [%s] loaded %d notes", filter.Label(), len(list))
		s.observeRefresh("loaded")
	}

	s.notify(listeners, state, version)
}

func (s *Syncer) listenersLocked() []Listener {
	if len(s.listeners) == 0 {
		return nil
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}

// notify hands state to listeners unless a newer state was already delivered.
func (s *Syncer) notify(listeners []Listener, state State, version uint64) {
	s.notifyMutex.Lock()
	defer s.notifyMutex.Unlock()

	if version <= s.delivered {
		log.Tracef("notes sync: state %d superseded by %d, not delivered", version, s.delivered)
		return
	}
	s.delivered = version

	for _, l := range listeners {
		l(state)
	}
}

func (s *Syncer) observeRefresh(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CounterRefreshes.WithLabelValues(result).Inc()
}

func (s *Syncer) observeMutation(kind string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	s.metrics.CounterMutations.WithLabelValues(kind, result).Inc()
}
