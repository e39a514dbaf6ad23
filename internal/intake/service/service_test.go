package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"cleanops_backend/internal/events"
	"cleanops_backend/internal/intake/repository"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu       sync.Mutex
	clock    time.Time
	requests map[uuid.UUID]repository.Request
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		requests: make(map[uuid.UUID]repository.Request),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) CreateRequest(_ context.Context, params repository.CreateRequestParams) (repository.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	r := repository.Request{
		ID:          uuid.New(),
		CustomerID:  params.CustomerID,
		Name:        params.Name,
		Email:       params.Email,
		Phone:       params.Phone,
		Address:     params.Address,
		ServiceType: params.ServiceType,
		Notes:       params.Notes,
		Status:      params.Status,
		Source:      params.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.requests[r.ID] = r
	return r, nil
}

func (f *fakeStore) GetRequest(_ context.Context, id uuid.UUID) (repository.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return repository.Request{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) UpdateRequestStatus(_ context.Context, id uuid.UUID, fromStatus, toStatus string, quoteCents *int64) (repository.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != fromStatus {
		return repository.Request{}, repository.ErrStalePrecondition
	}
	r.Status = toStatus
	if quoteCents != nil {
		r.QuoteCents = quoteCents
	}
	r.UpdatedAt = f.tick()
	f.requests[id] = r
	return r, nil
}

func (f *fakeStore) LinkCustomer(_ context.Context, id, customerID uuid.UUID) (repository.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return repository.Request{}, repository.ErrNotFound
	}
	r.CustomerID = &customerID
	f.requests[id] = r
	return r, nil
}

func (f *fakeStore) ListFeedRequests(_ context.Context, q repository.FeedQuery) ([]repository.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Request
	for _, r := range f.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type fakeUpserter struct {
	id     uuid.UUID
	phones []string
}

func (f *fakeUpserter) UpsertByContact(_ context.Context, _, _, phone *string) (uuid.UUID, error) {
	if phone != nil {
		f.phones = append(f.phones, *phone)
	}
	return f.id, nil
}

type fakeBookingCreator struct {
	bookingID uuid.UUID
	amounts   []*int64
	sources   []string
}

func (f *fakeBookingCreator) CreateFromIntake(_ context.Context, _ uuid.UUID, amountCents *int64, source string) (uuid.UUID, error) {
	f.amounts = append(f.amounts, amountCents)
	f.sources = append(f.sources, source)
	return f.bookingID, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeUpserter, *fakeBookingCreator) {
	t.Helper()
	store := newFakeStore()
	upserter := &fakeUpserter{id: uuid.New()}
	creator := &fakeBookingCreator{bookingID: uuid.New()}
	log := logger.New("development")
	return New(store, upserter, creator, events.NewInMemoryBus(log), log), store, upserter, creator
}

func strPtr(s string) *string { return &s }

func TestSubmitRequiresContact(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.SubmitRequest(context.Background(), SubmitRequestParams{Name: strPtr("Dana")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSubmitNormalizesPhoneAndLinksCustomer(t *testing.T) {
	svc, _, upserter, _ := newTestService(t)
	req, err := svc.SubmitRequest(context.Background(), SubmitRequestParams{
		Name:  strPtr("Dana Wells"),
		Phone: strPtr("(212) 555-0134"),
	})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if req.Status != StatusNew {
		t.Errorf("status = %s, want new", req.Status)
	}
	if req.Phone == nil || *req.Phone != "+12125550134" {
		t.Errorf("phone = %v, want +12125550134", req.Phone)
	}
	if req.CustomerID == nil || *req.CustomerID != upserter.id {
		t.Errorf("customer = %v, want %s", req.CustomerID, upserter.id)
	}
}

func TestQuoteOnlyFromNew(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.SubmitRequest(ctx, SubmitRequestParams{Email: strPtr("dana@example.com")})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	quoted, err := svc.Quote(ctx, req.ID, 15000)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quoted.Status != StatusQuoted || quoted.QuoteCents == nil || *quoted.QuoteCents != 15000 {
		t.Fatalf("quoted = %+v", quoted)
	}

	if _, err := svc.Quote(ctx, req.ID, 16000); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second quote err = %v, want conflict", err)
	}
	if _, err := svc.Quote(ctx, uuid.New(), 100); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("quote missing err = %v, want not found", err)
	}
}

func TestConvertQuotedRequest(t *testing.T) {
	svc, store, _, creator := newTestService(t)
	ctx := context.Background()

	req, _ := svc.SubmitRequest(ctx, SubmitRequestParams{Email: strPtr("dana@example.com")})
	if _, err := svc.Quote(ctx, req.ID, 15000); err != nil {
		t.Fatalf("Quote: %v", err)
	}

	converted, bookingID, err := svc.Convert(ctx, req.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if converted.Status != StatusConverted {
		t.Errorf("status = %s, want converted", converted.Status)
	}
	if bookingID != creator.bookingID {
		t.Errorf("booking id = %s, want %s", bookingID, creator.bookingID)
	}
	if len(creator.amounts) != 1 || creator.amounts[0] == nil || *creator.amounts[0] != 15000 {
		t.Errorf("booking amounts = %v, want quoted amount", creator.amounts)
	}
	if creator.sources[0] != "intake_conversion" {
		t.Errorf("booking source = %s", creator.sources[0])
	}

	stored, _ := store.GetRequest(ctx, req.ID)
	if stored.Status != StatusConverted {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestConvertRequiresQuoteAndCustomer(t *testing.T) {
	svc, store, _, creator := newTestService(t)
	ctx := context.Background()

	fresh, _ := svc.SubmitRequest(ctx, SubmitRequestParams{Email: strPtr("a@example.com")})
	if _, _, err := svc.Convert(ctx, fresh.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("convert new err = %v, want conflict", err)
	}

	// Quoted but never linked to a customer.
	orphan, _ := store.CreateRequest(ctx, repository.CreateRequestParams{
		Email: strPtr("b@example.com"), Status: StatusQuoted,
	})
	if _, _, err := svc.Convert(ctx, orphan.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("convert orphan err = %v, want conflict", err)
	}
	if len(creator.amounts) != 0 {
		t.Fatalf("bookings created = %d, want 0", len(creator.amounts))
	}
}

func TestRejectTerminal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	req, _ := svc.SubmitRequest(ctx, SubmitRequestParams{Email: strPtr("c@example.com")})
	rejected, err := svc.Reject(ctx, req.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}

	if _, err := svc.Reject(ctx, req.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second reject err = %v, want conflict", err)
	}
}
