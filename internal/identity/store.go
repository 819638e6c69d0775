package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

var ErrUnknownAuthor = errors.New("unknown author")

const writeTimeout = 5 * time.Second

// Store holds the household member using this device.
// Reads and switches are served from memory; every switch is also written
// to the durable storage in the background, and a failed write is only logged.
type Store struct {
	storage Storage
	metrics *metrics.Manager

	mutex   sync.RWMutex
	author  notes.Author
	set     bool
	version uint64

	// durable writes run one at a time and always write the latest value
	writeMutex     sync.Mutex
	writtenVersion uint64
	pending        sync.WaitGroup
}

func NewStore(storage Storage, metricsManager *metrics.Manager) *Store {
	return &Store{
		storage: storage,
		metrics: metricsManager,
	}
}

// Hydrate loads the persisted identity once, at startup. Only "Ben" or "Wife"
// set the identity; anything else leaves it unset. A read error is logged and
// returned for information, the store stays usable.
// An identity chosen in memory before Hydrate completes is not overridden.
func (s *Store) Hydrate(ctx context.Context) error {
	value, found, err := s.storage.Get(ctx, AuthorKey)
	if err != nil {
		log.Errorf("identity: read [%s]: %s", AuthorKey, err)
		return err
	}
	if !found {
		log.Debugln("identity: nothing persisted yet")
		return nil
	}

	author := notes.Author(value)
	if !author.Valid() {
		log.Warnf("identity: ignoring persisted value [%s]", value)
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.set {
		log.Debugf("identity: already chosen [%s], keeping it over persisted [%s]", s.author, author)
		return nil
	}
	s.author = author
	s.set = true
	log.Debugf("identity: hydrated [%s]", author)

	return nil
}

func (s *Store) Author() (notes.Author, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.author, s.set
}

// SetAuthor switches the identity in memory right away and schedules
// a durable write, which is never awaited.
func (s *Store) SetAuthor(author notes.Author) error {
	if !author.Valid() {
		return ErrUnknownAuthor
	}

	s.mutex.Lock()
	s.switchLocked(author)
	s.mutex.Unlock()

	s.schedulePersist()
	return nil
}

// Toggle switches between Ben and Wife, picking Ben when nothing is chosen yet.
func (s *Store) Toggle() notes.Author {
	s.mutex.Lock()
	next := notes.AuthorBen
	if s.set {
		next = s.author.Other()
	}
	s.switchLocked(next)
	s.mutex.Unlock()

	s.schedulePersist()
	return next
}

func (s *Store) switchLocked(author notes.Author) {
	s.author = author
	s.set = true
	s.version++
}

func (s *Store) schedulePersist() {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.persistLatest()
	}()
}

// Wait blocks until all scheduled durable writes are done.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) persistLatest() {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	s.mutex.RLock()
	author, version := s.author, s.version
	s.mutex.RUnlock()

	if version == s.writtenVersion {
		// an earlier write already stored this value
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.storage.Set(ctx, AuthorKey, string(author)); err != nil {
		log.Errorf("identity: write [%s=%s]: %s", AuthorKey, author, err)
		s.observeWrite("failed")
		return
	}

	s.writtenVersion = version
	s.observeWrite("ok")
	log.Tracef("identity: persisted [%s]", author)
}

func (s *Store) observeWrite(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CounterIdentityWrites.WithLabelValues(result).Inc()
}
