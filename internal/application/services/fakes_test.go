package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/ports"
)

// fakeListRepo is an in-memory ports.ListRepository with injectable
// failures. BatchWrite applies all documents or none.
type fakeListRepo struct {
	mu         sync.Mutex
	lists      map[string]*entities.List
	order      []string
	queryErr   error
	updateErr  error
	batchErr   error
	batchCalls int
}

func newFakeListRepo(lists ...*entities.List) *fakeListRepo {
	r := &fakeListRepo{lists: make(map[string]*entities.List)}
	for _, l := range lists {
		r.put(l)
	}
	return r
}

func (r *fakeListRepo) put(l *entities.List) {
	if _, ok := r.lists[l.ID]; !ok {
		r.order = append(r.order, l.ID)
	}
	copied := *l
	copied.Tasks = append([]entities.Task(nil), l.Tasks...)
	r.lists[l.ID] = &copied
}

func (r *fakeListRepo) get(id string) *entities.List {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.lists[id]
	copied := *l
	copied.Tasks = append([]entities.Task(nil), l.Tasks...)
	return &copied
}

func (r *fakeListRepo) Create(ctx context.Context, list *entities.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(list)
	return nil
}

func (r *fakeListRepo) GetByID(ctx context.Context, id string) (*entities.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		return nil, entities.ErrListNotFound
	}
	copied := *l
	copied.Tasks = append([]entities.Task(nil), l.Tasks...)
	return &copied, nil
}

func (r *fakeListRepo) Query(ctx context.Context, filter ports.ListFilter) ([]*entities.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var out []*entities.List
	for _, id := range r.order {
		l := r.lists[id]
		if filter.OwnerID != nil && l.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.RecipientID != nil && l.RecipientID != *filter.RecipientID {
			continue
		}
		copied := *l
		copied.Tasks = append([]entities.Task(nil), l.Tasks...)
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeListRepo) Update(ctx context.Context, list *entities.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.lists[list.ID]; !ok {
		return entities.ErrListNotFound
	}
	r.put(list)
	return nil
}

func (r *fakeListRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[id]; !ok {
		return entities.ErrListNotFound
	}
	delete(r.lists, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeListRepo) BatchWrite(ctx context.Context, lists []*entities.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchCalls++
	if r.batchErr != nil {
		return r.batchErr
	}
	for _, l := range lists {
		r.put(l)
	}
	return nil
}

// fakeScheduler records pending reminders per actor. failIDs makes
// Schedule fail for specific identifiers.
type fakeScheduler struct {
	mu      sync.Mutex
	pending map[string]map[string]ports.ReminderRequest
	failIDs map[string]bool
	cancels int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]map[string]ports.ReminderRequest)}
}

func (f *fakeScheduler) seed(actorID string, req ports.ReminderRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[actorID] == nil {
		f.pending[actorID] = make(map[string]ports.ReminderRequest)
	}
	f.pending[actorID][req.Identifier] = req
}

func (f *fakeScheduler) get(actorID, id string) (ports.ReminderRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.pending[actorID][id]
	return req, ok
}

func (f *fakeScheduler) identifiers(actorID string) map[string]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.pending[actorID]))
	for id := range f.pending[actorID] {
		out[id] = struct{}{}
	}
	return out
}

func (f *fakeScheduler) PendingIdentifiers(ctx context.Context, actorID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.pending[actorID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeScheduler) Schedule(ctx context.Context, actorID string, req ports.ReminderRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[req.Identifier] {
		return fmt.Errorf("registration rejected for %s", req.Identifier)
	}
	if f.pending[actorID] == nil {
		f.pending[actorID] = make(map[string]ports.ReminderRequest)
	}
	f.pending[actorID][req.Identifier] = req
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, actorID string, identifiers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range identifiers {
		if _, ok := f.pending[actorID][id]; ok {
			delete(f.pending[actorID], id)
			f.cancels++
		}
	}
	return nil
}

// fakeConsent returns a fixed status and counts permission requests.
type fakeConsent struct {
	mu        sync.Mutex
	status    ports.ConsentStatus
	grant     bool
	requested int
}

func (f *fakeConsent) Status(ctx context.Context, actorID string) (ports.ConsentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeConsent) Request(ctx context.Context, actorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested++
	if f.grant {
		f.status = ports.ConsentAuthorized
	}
	return f.grant, nil
}

func (f *fakeConsent) SetStatus(ctx context.Context, actorID string, status ports.ConsentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	return nil
}

// fakeObjects records removed object URLs.
type fakeObjects struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeObjects) Remove(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, url)
	return nil
}
