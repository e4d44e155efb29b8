package state

import (
	"context"
	"sync"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// fakeTransport records every call and answers from its configured fields.
// hook, when set, runs inside each call before it returns.
type fakeTransport struct {
	mu sync.Mutex

	users     []model.User
	listErr   error
	createErr error
	updateErr error
	removeErr error
	panicOp   string

	listCalls []Query
	created   []model.CreateUserRequest
	updated   []model.UpdateUserRequest
	removed   []int64

	hook func(op string)
}

func (f *fakeTransport) before(op string) {
	f.mu.Lock()
	hook := f.hook
	panicOp := f.panicOp
	f.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	if panicOp == op {
		panic(op + " exploded")
	}
}

func (f *fakeTransport) List(_ context.Context, query Query) ([]model.User, error) {
	f.before(opLoad)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, query)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeTransport) Create(_ context.Context, req model.CreateUserRequest) error {
	f.before(opCreate)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return f.createErr
}

func (f *fakeTransport) Update(_ context.Context, req model.UpdateUserRequest) error {
	f.before(opUpdate)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, req)
	return f.updateErr
}

func (f *fakeTransport) Remove(_ context.Context, id int64) error {
	f.before(opDelete)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return f.removeErr
}

func (f *fakeTransport) set(fn func(f *fakeTransport)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeTransport) lists() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.listCalls...)
}

// listReply is what a gated List call resolves with.
type listReply struct {
	users []model.User
	err   error
}

// gatedTransport blocks List and Remove until the test releases them.
// List calls are keyed by page, Remove calls by ID.
type gatedTransport struct {
	fakeTransport

	started   chan string
	listGates map[int]chan listReply
	removes   map[int64]chan error
}

func newGatedTransport() *gatedTransport {
	return &gatedTransport{
		started:   make(chan string, 16),
		listGates: make(map[int]chan listReply),
		removes:   make(map[int64]chan error),
	}
}

func (g *gatedTransport) listGate(page int) chan listReply {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.listGates[page]; !ok {
		g.listGates[page] = make(chan listReply, 1)
	}
	return g.listGates[page]
}

func (g *gatedTransport) removeGate(id int64) chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.removes[id]; !ok {
		g.removes[id] = make(chan error, 1)
	}
	return g.removes[id]
}

func (g *gatedTransport) List(ctx context.Context, query Query) ([]model.User, error) {
	gate := g.listGate(query.Page)
	g.started <- opLoad

	select {
	case reply := <-gate:
		return reply.users, reply.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedTransport) Remove(ctx context.Context, id int64) error {
	gate := g.removeGate(id)
	g.started <- opDelete

	select {
	case err := <-gate:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fakeWatcher hands out a test-controlled event channel.
type fakeWatcher struct {
	events chan model.ChangeEvent
	err    error
}

func (w *fakeWatcher) Watch(context.Context) (<-chan model.ChangeEvent, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.events, nil
}
