package state

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/shelf/internal/books"
)

type searchResult struct {
	books []books.Book
	err   error
}

// fakeSearcher answers from a per-query table and records every call.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string]searchResult
	calls   []string
	gates   map[string]chan struct{}
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: make(map[string]searchResult),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeSearcher) set(query string, list []books.Book, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[query] = searchResult{books: list, err: err}
}

// block makes searches for query wait until the returned func is called.
func (f *fakeSearcher) block(query string) func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[query] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]books.Book, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	gate := f.gates[query]
	res, ok := f.results[query]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	return books.CloneAll(res.books), res.err
}

func (f *fakeSearcher) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

type fakeDetailer struct {
	book books.Book
	err  error
	hits int
}

func (f *fakeDetailer) Volume(ctx context.Context, id string) (books.Book, error) {
	f.hits++
	if f.err != nil {
		return books.Book{}, f.err
	}
	b := f.book
	b.ID = id
	return b, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	searches []string
	details  []string
}

func (r *fakeRecorder) ObserveSearch(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, outcome)
}

func (r *fakeRecorder) ObserveDetail(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details = append(r.details, outcome)
}

func jazzBooks() []books.Book {
	return []books.Book{
		{ID: "a", Title: "Jazz", Authors: []string{"Ted Gioia"}},
		{ID: "b", Title: "Blue Note", Authors: []string{}},
	}
}

func TestMachine_StartsLoadingAndRunsDefaultQuery(t *testing.T) {
	s := newFakeSearcher()
	s.set(DefaultQuery, jazzBooks(), nil)
	m := New(s, Options{})

	if got := m.Snapshot().Kind; got != KindLoading {
		t.Fatalf("initial Kind = %v, want loading", got)
	}

	snap := m.Start(context.Background())
	if snap.Kind != KindList || len(snap.Books) != 2 {
		t.Fatalf("after Start Kind=%v books=%d, want list of 2", snap.Kind, len(snap.Books))
	}
	if calls := s.callList(); len(calls) != 1 || calls[0] != "jazz+history" {
		t.Fatalf("calls = %v, want [jazz+history]", calls)
	}
	if len(snap.Recent) != 0 {
		t.Fatalf("Recent = %v, want default query not recorded", snap.Recent)
	}
	if !reflect.DeepEqual(snap.LastList, snap.Books) {
		t.Fatalf("LastList = %#v, want it to match the list", snap.LastList)
	}
}

func TestMachine_EmptyResultIsErrorByDefault(t *testing.T) {
	s := newFakeSearcher()
	s.set("nothing", []books.Book{}, nil)
	m := New(s, Options{})

	snap := m.StartSearch(context.Background(), "nothing")
	if snap.Kind != KindError {
		t.Fatalf("Kind = %v, want error", snap.Kind)
	}
	if !errors.Is(snap.Err, books.ErrEmptyResult) {
		t.Fatalf("Err = %v, want ErrEmptyResult", snap.Err)
	}
	if snap.LastList != nil {
		t.Fatalf("LastList = %#v, want untouched", snap.LastList)
	}
}

func TestMachine_EmptyResultAsStatePolicy(t *testing.T) {
	s := newFakeSearcher()
	s.set("nothing", nil, nil)
	m := New(s, Options{EmptyPolicy: EmptyAsState})

	snap := m.StartSearch(context.Background(), "nothing")
	if snap.Kind != KindEmpty || snap.Query != "nothing" {
		t.Fatalf("Kind=%v Query=%q, want empty for nothing", snap.Kind, snap.Query)
	}
	if snap.Err != nil {
		t.Fatalf("Err = %v, want nil", snap.Err)
	}
}

func TestMachine_FailureIsErrorAndRetryRepeatsQuery(t *testing.T) {
	s := newFakeSearcher()
	netErr := fmt.Errorf("dial: %w", books.ErrNetwork)
	s.set("coltrane", nil, netErr)
	rec := &fakeRecorder{}
	m := New(s, Options{Recorder: rec})

	snap := m.StartSearch(context.Background(), "coltrane")
	if snap.Kind != KindError || !errors.Is(snap.Err, books.ErrNetwork) {
		t.Fatalf("Kind=%v Err=%v, want network error", snap.Kind, snap.Err)
	}

	s.set("coltrane", jazzBooks(), nil)
	snap = m.Retry(context.Background())
	if snap.Kind != KindList {
		t.Fatalf("after Retry Kind = %v, want list", snap.Kind)
	}
	calls := s.callList()
	if len(calls) != 2 || calls[1] != "coltrane" {
		t.Fatalf("calls = %v, want retry of coltrane", calls)
	}
	if !reflect.DeepEqual(rec.searches, []string{OutcomeNetwork, OutcomeOK}) {
		t.Fatalf("recorded outcomes = %v", rec.searches)
	}
}

func TestMachine_RetryWithoutHistoryUsesDefault(t *testing.T) {
	s := newFakeSearcher()
	s.set("bebop", jazzBooks(), nil)
	m := New(s, Options{DefaultQuery: "bebop"})

	snap := m.Retry(context.Background())
	if snap.Kind != KindList || snap.Query != "bebop" {
		t.Fatalf("Kind=%v Query=%q, want list for bebop", snap.Kind, snap.Query)
	}
}

func TestMachine_SelectAndGoBackRestoresList(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz", jazzBooks(), nil)
	m := New(s, Options{})

	before := m.StartSearch(context.Background(), "jazz")
	detail := m.SelectBook(before.Books[1])
	if detail.Kind != KindDetail || detail.Book.ID != "b" {
		t.Fatalf("Kind=%v Book=%q, want detail of b", detail.Kind, detail.Book.ID)
	}

	after := m.GoBack()
	if after.Kind != KindList {
		t.Fatalf("Kind = %v, want list", after.Kind)
	}
	if !reflect.DeepEqual(after.Books, before.Books) {
		t.Fatalf("GoBack books = %#v, want %#v", after.Books, before.Books)
	}
	if len(s.callList()) != 1 {
		t.Fatalf("GoBack issued a network call: %v", s.callList())
	}
}

func TestMachine_GoBackAfterFailedSearchKeepsPreviousList(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz", jazzBooks(), nil)
	s.set("broken", nil, books.ErrDecode)
	m := New(s, Options{})

	good := m.StartSearch(context.Background(), "jazz")
	m.StartSearch(context.Background(), "broken")
	m.SelectBook(good.Books[0])

	back := m.GoBack()
	if !reflect.DeepEqual(back.Books, good.Books) || back.Query != "jazz" {
		t.Fatalf("GoBack = %#v (%q), want list of jazz", back.Books, back.Query)
	}
}

func TestMachine_GoBackBeforeAnySuccessIsEmptyList(t *testing.T) {
	m := New(newFakeSearcher(), Options{})
	m.SelectBook(books.Book{ID: "x"})

	snap := m.GoBack()
	if snap.Kind != KindList || snap.Books == nil || len(snap.Books) != 0 {
		t.Fatalf("GoBack = kind %v books %#v, want empty list", snap.Kind, snap.Books)
	}
}

func TestMachine_StaleResultIsDiscarded(t *testing.T) {
	s := newFakeSearcher()
	s.set("slow", []books.Book{{ID: "old"}}, nil)
	s.set("fast", []books.Book{{ID: "new"}}, nil)
	release := s.block("slow")
	rec := &fakeRecorder{}
	m := New(s, Options{Recorder: rec})

	done := make(chan Snapshot)
	go func() { done <- m.StartSearch(context.Background(), "slow") }()

	waitFor(t, func() bool { return len(s.callList()) == 1 })

	fast := m.StartSearch(context.Background(), "fast")
	if fast.Kind != KindList || fast.Books[0].ID != "new" {
		t.Fatalf("fast search = %#v, want list with new", fast.Books)
	}

	release()
	<-done

	snap := m.Snapshot()
	if snap.Kind != KindList || snap.Books[0].ID != "new" || snap.Query != "fast" {
		t.Fatalf("after stale completion = %v %#v, want fast list kept", snap.Kind, snap.Books)
	}
	if !reflect.DeepEqual(rec.searches, []string{OutcomeOK, OutcomeSuperseded}) {
		t.Fatalf("recorded outcomes = %v", rec.searches)
	}
}

func TestMachine_NewSearchCancelsInFlightContext(t *testing.T) {
	canceled := make(chan struct{})
	searcher := searcherFunc(func(ctx context.Context, query string) ([]books.Book, error) {
		if query == "first" {
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return jazzBooks(), nil
	})
	m := New(searcher, Options{})

	go m.StartSearch(context.Background(), "first")
	waitFor(t, func() bool { return m.Snapshot().Query == "first" })

	m.StartSearch(context.Background(), "second")
	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatalf("first search was not cancelled")
	}
	if got := m.Snapshot(); got.Kind != KindList || got.Query != "second" {
		t.Fatalf("state = %v %q, want list for second", got.Kind, got.Query)
	}
}

func TestMachine_BlankQueryUsesDefault(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz+history", jazzBooks(), nil)
	m := New(s, Options{})

	snap := m.StartSearch(context.Background(), "   ")
	if snap.Kind != KindList || snap.Query != "jazz+history" {
		t.Fatalf("Kind=%v Query=%q, want default query list", snap.Kind, snap.Query)
	}
}

func TestMachine_RecentSearches(t *testing.T) {
	s := newFakeSearcher()
	for _, q := range []string{"a", "b", "c", "d", "e", "f", "Café", "CAFÉ"} {
		s.set(q, jazzBooks(), nil)
	}
	m := New(s, Options{})
	ctx := context.Background()

	for _, q := range []string{"a", "b", "a"} {
		m.StartSearch(ctx, q)
	}
	if got := m.Recent(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Recent = %v, want [a b]", got)
	}

	for _, q := range []string{"c", "d", "e", "f"} {
		m.StartSearch(ctx, q)
	}
	if got := m.Recent(); !reflect.DeepEqual(got, []string{"f", "e", "d", "c", "a"}) {
		t.Fatalf("Recent = %v, want [f e d c a]", got)
	}

	m.StartSearch(ctx, "Café")
	m.StartSearch(ctx, "CAFÉ")
	got := m.Recent()
	if got[0] != "CAFÉ" || got[1] == "Café" {
		t.Fatalf("Recent = %v, want case-insensitive dedupe", got)
	}
}

func TestMachine_SetQueryAndSearchUseInput(t *testing.T) {
	s := newFakeSearcher()
	s.set("monk", jazzBooks(), nil)
	m := New(s, Options{})

	m.SetQuery("monk")
	snap := m.Search(context.Background())
	if snap.Kind != KindList || snap.Input != "monk" || snap.Recent[0] != "monk" {
		t.Fatalf("Search = %v input=%q recent=%v", snap.Kind, snap.Input, snap.Recent)
	}
}

func TestMachine_ClearSearch(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz+history", []books.Book{{ID: "default"}}, nil)
	s.set("miles", jazzBooks(), nil)
	ctx := context.Background()

	// Without a previous list the default query runs.
	m := New(s, Options{})
	m.SetQuery("typed")
	snap := m.ClearSearch(ctx)
	if snap.Input != "" || snap.Kind != KindList || snap.Books[0].ID != "default" {
		t.Fatalf("ClearSearch = %v %#v input=%q, want default list", snap.Kind, snap.Books, snap.Input)
	}

	// With a previous list it comes back without a request.
	m.StartSearch(ctx, "miles")
	m.SetQuery("half typed")
	calls := len(s.callList())
	snap = m.ClearSearch(ctx)
	if snap.Kind != KindList || snap.Books[0].ID != "a" || snap.Input != "" {
		t.Fatalf("ClearSearch = %v %#v, want miles list", snap.Kind, snap.Books)
	}
	if len(s.callList()) != calls {
		t.Fatalf("ClearSearch issued a request with a cached list")
	}
}

func TestMachine_EnrichDetail(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz", jazzBooks(), nil)
	pages := 300
	det := &fakeDetailer{book: books.Book{Title: "Jazz (Expanded)", PageCount: &pages}}
	rec := &fakeRecorder{}
	m := New(s, Options{Detailer: det, Recorder: rec})
	ctx := context.Background()

	list := m.StartSearch(ctx, "jazz")
	m.SelectBook(list.Books[0])
	snap := m.EnrichDetail(ctx)
	if snap.Kind != KindDetail || snap.Book.ID != "a" {
		t.Fatalf("EnrichDetail = %v %q, want detail of a", snap.Kind, snap.Book.ID)
	}
	if snap.Book.PageCount == nil || *snap.Book.PageCount != 300 || snap.Book.Title != "Jazz (Expanded)" {
		t.Fatalf("EnrichDetail book = %#v, want merged record", snap.Book)
	}
	if !reflect.DeepEqual(rec.details, []string{OutcomeOK}) {
		t.Fatalf("detail outcomes = %v", rec.details)
	}

	// The list itself is unchanged.
	back := m.GoBack()
	if back.Books[0].PageCount != nil {
		t.Fatalf("GoBack list was modified by enrichment")
	}
}

func TestMachine_EnrichDetailFailureKeepsRecord(t *testing.T) {
	det := &fakeDetailer{err: fmt.Errorf("lookup: %w", books.ErrNotFound)}
	rec := &fakeRecorder{}
	m := New(newFakeSearcher(), Options{Detailer: det, Recorder: rec})

	m.SelectBook(books.Book{ID: "x", Title: "Kept"})
	snap := m.EnrichDetail(context.Background())
	if snap.Kind != KindDetail || snap.Book.Title != "Kept" {
		t.Fatalf("EnrichDetail = %v %#v, want kept record", snap.Kind, snap.Book)
	}
	if !reflect.DeepEqual(rec.details, []string{OutcomeNotFound}) {
		t.Fatalf("detail outcomes = %v", rec.details)
	}
}

func TestMachine_EnrichDetailDisabledOrNotInDetail(t *testing.T) {
	m := New(newFakeSearcher(), Options{})
	m.SelectBook(books.Book{ID: "x"})
	if snap := m.EnrichDetail(context.Background()); snap.Book.ID != "x" {
		t.Fatalf("EnrichDetail without detailer changed state: %#v", snap.Book)
	}

	det := &fakeDetailer{}
	m = New(newFakeSearcher(), Options{Detailer: det})
	m.EnrichDetail(context.Background())
	if det.hits != 0 {
		t.Fatalf("EnrichDetail outside detail issued %d lookups", det.hits)
	}
}

func TestMachine_SubscribeDeliversLatest(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz", jazzBooks(), nil)
	m := New(s, Options{})

	ch, unsubscribe := m.Subscribe()
	first := <-ch
	if first.Kind != KindLoading {
		t.Fatalf("first snapshot Kind = %v, want loading", first.Kind)
	}

	// Several transitions without reading: only the newest is kept.
	m.StartSearch(context.Background(), "jazz")
	m.SelectBook(books.Book{ID: "a"})

	got := <-ch
	if got.Kind != KindDetail {
		t.Fatalf("latest snapshot Kind = %v, want detail", got.Kind)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot %v", extra.Kind)
	default:
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
}

func TestMachine_CloseClosesSubscriptions(t *testing.T) {
	m := New(newFakeSearcher(), Options{})
	ch, unsubscribe := m.Subscribe()
	<-ch

	m.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel open after Close")
	}
	unsubscribe()
}

func TestMachine_SnapshotIsIndependent(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz", jazzBooks(), nil)
	m := New(s, Options{})

	snap := m.StartSearch(context.Background(), "jazz")
	snap.Books[0].Title = "mutated"
	snap.Books[0].Authors[0] = "mutated"
	snap.LastList[0].Title = "mutated"

	again := m.Snapshot()
	if again.Books[0].Title != "Jazz" || again.Books[0].Authors[0] != "Ted Gioia" || again.LastList[0].Title != "Jazz" {
		t.Fatalf("Snapshot shares memory with the machine: %#v", again.Books[0])
	}
}

func TestParseEmptyPolicy(t *testing.T) {
	cases := map[string]EmptyPolicy{"": EmptyAsError, "error": EmptyAsError, " Empty ": EmptyAsState}
	for in, want := range cases {
		got, err := ParseEmptyPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseEmptyPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseEmptyPolicy("sometimes"); err == nil {
		t.Fatalf("ParseEmptyPolicy(sometimes) returned nil error")
	}
}

type searcherFunc func(ctx context.Context, query string) ([]books.Book, error)

func (f searcherFunc) Search(ctx context.Context, query string) ([]books.Book, error) {
	return f(ctx, query)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestMachine_SeededRecent(t *testing.T) {
	m := New(newFakeSearcher(), Options{Recent: []string{"a", "B", "b", "c", "d", "e", "f"}})

	if got := m.Recent(); !reflect.DeepEqual(got, []string{"a", "B", "c", "d", "e"}) {
		t.Fatalf("Recent = %v, want seed order kept, deduped and truncated", got)
	}
}

func TestMachine_VersionIncreases(t *testing.T) {
	s := newFakeSearcher()
	s.set("jazz", jazzBooks(), nil)
	m := New(s, Options{})

	v0 := m.Snapshot().Version
	v1 := m.SetQuery("jazz").Version
	v2 := m.StartSearch(context.Background(), "jazz").Version
	v3 := m.GoBack().Version
	if !(v0 < v1 && v1 < v2 && v2 < v3) {
		t.Fatalf("versions = %d %d %d %d, want strictly increasing", v0, v1, v2, v3)
	}
	if again := m.SetQuery("jazz").Version; again != v3 {
		t.Fatalf("unchanged SetQuery bumped version to %d", again)
	}
}
