package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// --- In-memory stores ---

type fakeAccountStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]model.Account
	err      error
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: map[int64]model.Account{}}
}

func (f *fakeAccountStore) Create(_ context.Context, a model.Account) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Account{}, f.err
	}
	f.nextID++
	a.ID = f.nextID
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeAccountStore) Get(_ context.Context, id int64) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Account{}, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, driven.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccountStore) List(_ context.Context) ([]model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, f.err
}

func (f *fakeAccountStore) Update(_ context.Context, id int64, patch model.AccountPatch, updatedAt time.Time) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Account{}, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, driven.ErrAccountNotFound
	}
	a = patch.Apply(a)
	a.UpdatedAt = updatedAt
	f.accounts[id] = a
	return a, nil
}

func (f *fakeAccountStore) Delete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.accounts[id]; !ok {
		return false, nil
	}
	delete(f.accounts, id)
	return true, nil
}

// fakeCodeStore mirrors the conditional update of the SQLite adapter under a mutex.
type fakeCodeStore struct {
	mu     sync.Mutex
	nextID int64
	byCode map[string]*model.AccessCode

	// takenOnce makes the next Create report a collision regardless of state.
	takenOnce bool
	// consumeUnavailable forces ConsumeUse to report the use as gone.
	consumeUnavailable bool
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{byCode: map[string]*model.AccessCode{}}
}

func (f *fakeCodeStore) Create(_ context.Context, c model.AccessCode) (model.AccessCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.takenOnce {
		f.takenOnce = false
		return model.AccessCode{}, driven.ErrCodeTaken
	}
	if _, ok := f.byCode[c.Code]; ok {
		return model.AccessCode{}, driven.ErrCodeTaken
	}
	f.nextID++
	c.ID = f.nextID
	c.UsedCount = 0
	stored := c
	f.byCode[c.Code] = &stored
	return stored, nil
}

func (f *fakeCodeStore) CodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byCode[code]
	return ok, nil
}

func (f *fakeCodeStore) GetByCode(_ context.Context, code string) (model.AccessCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byCode[code]
	if !ok {
		return model.AccessCode{}, driven.ErrAccessCodeNotFound
	}
	return *c, nil
}

func (f *fakeCodeStore) ListByAccount(_ context.Context, accountID int64) ([]model.AccessCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.AccessCode{}
	for _, c := range f.byCode {
		if c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeCodeStore) ConsumeUse(_ context.Context, id int64, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeUnavailable {
		return 0, driven.ErrAccessCodeUnavailable
	}
	for _, c := range f.byCode {
		if c.ID != id {
			continue
		}
		if c.IsExhausted() || c.IsExpired(now) {
			return 0, driven.ErrAccessCodeUnavailable
		}
		c.UsedCount++
		c.UpdatedAt = now
		return c.UsedCount, nil
	}
	return 0, driven.ErrAccessCodeUnavailable
}

// --- Event capture ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []driven.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e driven.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey)
	}
	return out
}

// --- Helpers ---

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// repeatReader yields the same byte pattern forever, producing the same code
// on every GenerateCode call.
func repeatReader(pattern ...byte) io.Reader {
	return &cyclicReader{pattern: pattern}
}

type cyclicReader struct {
	pattern []byte
	pos     int
}

func (r *cyclicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.pattern[r.pos%len(r.pattern)]
		r.pos++
	}
	return len(p), nil
}

// sequenceReader serves the chunks back to back, then EOF.
func sequenceReader(chunks ...[]byte) io.Reader {
	return bytes.NewReader(bytes.Join(chunks, nil))
}

func seqBytes(start byte) []byte {
	b := make([]byte, 16)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

type ledgerFixture struct {
	accounts  *fakeAccountStore
	codes     *fakeCodeStore
	publisher *recordingPublisher
	ledger    *LedgerService
	accountSv *AccountService
	clock     *time.Time
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		accounts:  newFakeAccountStore(),
		codes:     newFakeCodeStore(),
		publisher: &recordingPublisher{},
	}
	now := testNow
	f.clock = &now
	f.ledger = NewLedgerService(f.accounts, f.codes, f.publisher, discardLogger(), DefaultExpiryDays)
	f.ledger.now = func() time.Time { return *f.clock }
	f.accountSv = NewAccountService(f.accounts, f.publisher, discardLogger())
	f.accountSv.now = func() time.Time { return *f.clock }
	return f
}

func (f *ledgerFixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func (f *ledgerFixture) addAccount(status model.EnrollmentStatus) model.Account {
	a, _ := f.accounts.Create(context.Background(), model.NewAccount(model.Account{
		Email:            "a@x.com",
		EmailPassword:    "p1",
		GitHubUsername:   "u1",
		GitHubPassword:   "p2",
		EnrollmentStatus: status,
	}))
	return a
}

func intPtr(n int) *int { return &n }
