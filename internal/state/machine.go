package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/books"
	"github.com/five82/shelf/internal/logger"
)

// DefaultQuery is issued at session start when none is configured.
const DefaultQuery = "jazz+history"

// Search and detail outcomes reported to a Recorder.
const (
	OutcomeOK         = "ok"
	OutcomeEmpty      = "empty"
	OutcomeNetwork    = "network"
	OutcomeDecode     = "decode"
	OutcomeNotFound   = "not_found"
	OutcomeCanceled   = "canceled"
	OutcomeSuperseded = "superseded"
	OutcomeOther      = "other"
)

// Recorder receives search and detail outcomes, typically for metrics.
type Recorder interface {
	ObserveSearch(outcome string, elapsed time.Duration)
	ObserveDetail(outcome string)
}

// Options configure a Machine. Zero values fall back to defaults.
type Options struct {
	DefaultQuery string
	EmptyPolicy  EmptyPolicy
	Recent       []string       // seed, most recent first
	Detailer     books.Detailer // nil disables EnrichDetail
	Recorder     Recorder
	Log          *logrus.Entry
	Now          func() time.Time
}

// Machine holds the search state for one session. All mutation goes through
// its methods under a single mutex; the remote call runs outside the lock.
type Machine struct {
	searcher     books.Searcher
	detailer     books.Detailer
	recorder     Recorder
	log          *logrus.Entry
	now          func() time.Time
	defaultQuery string
	policy       EmptyPolicy

	mu        sync.Mutex
	state     State
	input     string
	recent    []string
	lastQuery string
	lastList  []books.Book
	listQuery string
	seq       uint64
	cancel    context.CancelFunc
	updatedAt time.Time
	version   uint64
	subs      map[uint64]chan Snapshot
	nextSub   uint64
}

// New creates a machine in the Loading state. Call Start to issue the
// default query.
func New(searcher books.Searcher, opts Options) *Machine {
	m := &Machine{
		searcher:     searcher,
		detailer:     opts.Detailer,
		recorder:     opts.Recorder,
		log:          opts.Log,
		now:          opts.Now,
		defaultQuery: strings.TrimSpace(opts.DefaultQuery),
		policy:       opts.EmptyPolicy,
		state:        State{Kind: KindLoading},
		subs:         make(map[uint64]chan Snapshot),
	}
	if m.defaultQuery == "" {
		m.defaultQuery = DefaultQuery
	}
	for i := len(opts.Recent) - 1; i >= 0; i-- {
		m.recent = pushRecent(m.recent, opts.Recent[i])
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.updatedAt = m.now()
	return m
}

// DefaultQuery returns the query used at session start and after a clear.
func (m *Machine) DefaultQuery() string {
	return m.defaultQuery
}

// Policy returns the configured empty-result policy.
func (m *Machine) Policy() EmptyPolicy {
	return m.policy
}

// Start issues the default query. It is not recorded as a recent search.
func (m *Machine) Start(ctx context.Context) Snapshot {
	return m.run(ctx, m.defaultQuery, false)
}

// StartSearch moves to Loading, runs query on the caller's goroutine and
// applies the outcome. A blank query means the default query. A newer search
// cancels this one and its late result is discarded.
func (m *Machine) StartSearch(ctx context.Context, query string) Snapshot {
	m.mu.Lock()
	m.input = query
	m.mu.Unlock()
	return m.run(ctx, query, true)
}

// Search runs the current search-bar text.
func (m *Machine) Search(ctx context.Context) Snapshot {
	m.mu.Lock()
	query := m.input
	m.mu.Unlock()
	return m.run(ctx, query, true)
}

// Retry repeats the last attempted query, or the default one.
func (m *Machine) Retry(ctx context.Context) Snapshot {
	m.mu.Lock()
	query := m.lastQuery
	m.mu.Unlock()
	return m.run(ctx, query, false)
}

// SetQuery updates the search-bar text without searching.
func (m *Machine) SetQuery(query string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.input != query {
		m.input = query
		m.touchLocked()
	}
	return m.snapshotLocked()
}

// ClearSearch empties the search bar and returns to the last successful list,
// or searches the default query when there is none.
func (m *Machine) ClearSearch(ctx context.Context) Snapshot {
	m.mu.Lock()
	m.input = ""
	if len(m.lastList) > 0 {
		m.supersedeLocked()
		m.setLocked(State{Kind: KindList, Books: books.CloneAll(m.lastList), Query: m.listQuery})
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.mu.Unlock()
	return m.run(ctx, m.defaultQuery, false)
}

// SelectBook shows book in detail. The caller is trusted to pass a record
// from the current list.
func (m *Machine) SelectBook(book books.Book) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(State{Kind: KindDetail, Book: book.Clone(), Query: m.listQuery})
	m.log.WithField("id", book.ID).Debug("book selected")
	return m.snapshotLocked()
}

// GoBack restores the last successful list. Before any search succeeded the
// list is empty.
func (m *Machine) GoBack() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := books.CloneAll(m.lastList)
	if list == nil {
		list = []books.Book{}
	}
	m.setLocked(State{Kind: KindList, Books: list, Query: m.listQuery})
	return m.snapshotLocked()
}

// EnrichDetail looks up the selected record and merges the richer copy if
// the same record is still shown. Lookup failures keep the list record.
func (m *Machine) EnrichDetail(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.detailer == nil || m.state.Kind != KindDetail || m.state.Book.ID == "" {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	id := m.state.Book.ID
	m.mu.Unlock()

	log := m.log.WithField("id", id)
	rich, err := m.detailer.Volume(ctx, id)
	m.observeDetail(err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		log.WithError(err).Warn("detail lookup failed")
		return m.snapshotLocked()
	}
	if m.state.Kind != KindDetail || m.state.Book.ID != id {
		log.Debug("detail lookup finished after navigation; ignoring")
		return m.snapshotLocked()
	}
	m.setLocked(State{Kind: KindDetail, Book: m.state.Book.Merge(rich), Query: m.state.Query})
	return m.snapshotLocked()
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Recent returns up to MaxRecent distinct queries, most recent first.
func (m *Machine) Recent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.recent...)
}

// Subscribe returns a channel that always holds the newest snapshot. A slow
// reader skips intermediate snapshots but never misses the latest one. The
// current snapshot is delivered immediately. Call the returned func to
// unsubscribe; it closes the channel.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.snapshotLocked()
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
		})
	}
}

// Close cancels any in-flight search and closes every subscription.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supersedeLocked()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

func (m *Machine) run(ctx context.Context, query string, record bool) Snapshot {
	if strings.TrimSpace(query) == "" {
		query = m.defaultQuery
	}
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.supersedeLocked()
	m.seq++
	seq := m.seq
	m.cancel = cancel
	m.lastQuery = query
	if record {
		m.recent = pushRecent(m.recent, query)
	}
	m.setLocked(State{Kind: KindLoading, Query: query})
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{"seq": seq, "query": query})
	done := logger.Track(log, "search")
	start := m.now()
	found, err := m.searcher.Search(reqCtx, query)
	elapsed := m.now().Sub(start)
	done()

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.seq {
		log.Debug("discarding superseded search result")
		m.observeSearch(OutcomeSuperseded, elapsed)
		return m.snapshotLocked()
	}
	m.cancel = nil

	switch {
	case err != nil:
		m.observeSearch(searchOutcome(err), elapsed)
		log.WithError(err).Warn("search failed")
		m.setLocked(State{Kind: KindError, Query: query, Err: err})
	case len(found) == 0:
		m.observeSearch(OutcomeEmpty, elapsed)
		log.Info("search returned no results")
		if m.policy == EmptyAsState {
			m.setLocked(State{Kind: KindEmpty, Query: query})
		} else {
			m.setLocked(State{Kind: KindError, Query: query, Err: fmt.Errorf("search %q: %w", query, books.ErrEmptyResult)})
		}
	default:
		m.observeSearch(OutcomeOK, elapsed)
		log.WithField("count", len(found)).Info("search succeeded")
		m.lastList = books.CloneAll(found)
		m.listQuery = query
		m.setLocked(State{Kind: KindList, Books: books.CloneAll(found), Query: query})
	}
	return m.snapshotLocked()
}

// supersedeLocked invalidates the in-flight search, if any.
func (m *Machine) supersedeLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
}

func (m *Machine) setLocked(s State) {
	m.state = s
	m.touchLocked()
}

func (m *Machine) touchLocked() {
	m.version++
	m.updatedAt = m.now()
	m.publishLocked()
}

func (m *Machine) publishLocked() {
	if len(m.subs) == 0 {
		return
	}
	snap := m.snapshotLocked()
	for _, ch := range m.subs {
		// Drop the stale value, if unread, so the send never blocks.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:     m.state.clone(),
		Input:     m.input,
		Recent:    append([]string{}, m.recent...),
		LastQuery: m.lastQuery,
		LastList:  books.CloneAll(m.lastList),
		Seq:       m.seq,
		Version:   m.version,
		UpdatedAt: m.updatedAt,
	}
}

func (m *Machine) observeSearch(outcome string, elapsed time.Duration) {
	if m.recorder != nil {
		m.recorder.ObserveSearch(outcome, elapsed)
	}
}

func (m *Machine) observeDetail(err error) {
	if m.recorder == nil {
		return
	}
	m.recorder.ObserveDetail(Outcome(err))
}

// Outcome maps a lookup error to its Outcome label. A nil error is OutcomeOK.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return searchOutcome(err)
}

func searchOutcome(err error) string {
	if books.IsCanceled(err) {
		return OutcomeCanceled
	}
	switch {
	case errors.Is(err, books.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, books.ErrDecode):
		return OutcomeDecode
	case errors.Is(err, books.ErrNetwork):
		return OutcomeNetwork
	default:
		return OutcomeOther
	}
}
