package feed

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/ports"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeBookingSource struct {
	rows []repository.FeedBooking
}

func (f *fakeBookingSource) ListFeedBookings(_ context.Context, q repository.FeedQuery) ([]repository.FeedBooking, error) {
	var out []repository.FeedBooking
	for _, row := range f.rows {
		if q.BeforeCreatedAt != nil && q.BeforeID != nil && !rowBefore(row.CreatedAt, row.ID, *q.BeforeCreatedAt, *q.BeforeID) {
			continue
		}
		if len(q.Statuses) > 0 && !contains(q.Statuses, row.Status) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type fakeRequestSource struct {
	rows []ports.PreBookingRow
}

func (f *fakeRequestSource) ListFeedRequests(_ context.Context, q ports.PreBookingFeedQuery) ([]ports.PreBookingRow, error) {
	var out []ports.PreBookingRow
	for _, row := range f.rows {
		if q.BeforeCreatedAt != nil && q.BeforeID != nil && !rowBefore(row.CreatedAt, row.ID, *q.BeforeCreatedAt, *q.BeforeID) {
			continue
		}
		if len(q.Statuses) > 0 && !contains(q.Statuses, row.Status) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func rowBefore(createdAt time.Time, id uuid.UUID, beforeAt time.Time, beforeID uuid.UUID) bool {
	if !createdAt.Equal(beforeAt) {
		return createdAt.Before(beforeAt)
	}
	return bytes.Compare(id[:], beforeID[:]) < 0
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func at(minute int) time.Time {
	return time.Date(2026, 2, 1, 10, minute, 0, 0, time.UTC)
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: at(5), ID: uuid.New()}
	got, err := DecodeCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not-base64!!", "bm90IGpzb24", EncodeCursor(Cursor{})} {
		if _, err := DecodeCursor(raw); !apperr.Is(err, apperr.KindBadRequest) {
			t.Errorf("DecodeCursor(%q) err = %v, want bad request", raw, err)
		}
	}
}

func TestListMergesSourcesNewestFirst(t *testing.T) {
	bookings := &fakeBookingSource{rows: []repository.FeedBooking{
		{ID: uuid.New(), Status: string(domain.StatusScheduled), CreatedAt: at(1)},
		{ID: uuid.New(), Status: string(domain.StatusCharged), CreatedAt: at(3)},
	}}
	requests := &fakeRequestSource{rows: []ports.PreBookingRow{
		{ID: uuid.New(), Status: string(domain.RequestNew), CreatedAt: at(2)},
		{ID: uuid.New(), Status: string(domain.RequestQuoted), CreatedAt: at(4)},
	}}
	svc := New(bookings, requests)

	page, err := svc.List(context.Background(), Query{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(page.Items))
	}
	if page.NextCursor != "" {
		t.Errorf("next cursor = %q, want empty", page.NextCursor)
	}

	wantKinds := []string{KindPreBooking, KindBooking, KindPreBooking, KindBooking}
	wantStages := []string{domain.StageQuoted, domain.StagePaid, domain.StageIntake, domain.StageScheduled}
	for i, item := range page.Items {
		if item.Kind != wantKinds[i] {
			t.Errorf("item %d kind = %s, want %s", i, item.Kind, wantKinds[i])
		}
		if item.Stage != wantStages[i] {
			t.Errorf("item %d stage = %s, want %s", i, item.Stage, wantStages[i])
		}
	}
}

func TestListPaginatesWithoutGapsOrDuplicates(t *testing.T) {
	// Interleaved timestamps, including a cross-source tie.
	tie := at(30)
	bookings := &fakeBookingSource{}
	requests := &fakeRequestSource{}
	total := 0
	for minute := 0; minute < 12; minute++ {
		bookings.rows = append(bookings.rows, repository.FeedBooking{
			ID: uuid.New(), Status: string(domain.StatusScheduled), CreatedAt: at(minute * 2),
		})
		requests.rows = append(requests.rows, ports.PreBookingRow{
			ID: uuid.New(), Status: string(domain.RequestNew), CreatedAt: at(minute*2 + 1),
		})
		total += 2
	}
	bookings.rows = append(bookings.rows, repository.FeedBooking{
		ID: uuid.New(), Status: string(domain.StatusScheduled), CreatedAt: tie,
	})
	requests.rows = append(requests.rows, ports.PreBookingRow{
		ID: uuid.New(), Status: string(domain.RequestNew), CreatedAt: tie,
	})
	total += 2

	svc := New(bookings, requests)
	ctx := context.Background()

	seen := make(map[uuid.UUID]bool)
	var all []Item
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
		page, err := svc.List(ctx, Query{Limit: 5, Cursor: cursor})
		if err != nil {
			t.Fatalf("List page %d: %v", pages, err)
		}
		for _, item := range page.Items {
			if seen[item.ID] {
				t.Fatalf("item %s appeared twice", item.ID)
			}
			seen[item.ID] = true
			all = append(all, item)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(all) != total {
		t.Fatalf("collected %d items, want %d", len(all), total)
	}
	for i := 1; i < len(all); i++ {
		if itemAfter(all[i], all[i-1]) {
			t.Fatalf("items %d and %d out of order", i-1, i)
		}
	}
}

func TestListStageFilter(t *testing.T) {
	bookings := &fakeBookingSource{rows: []repository.FeedBooking{
		{ID: uuid.New(), Status: string(domain.StatusCharged), CreatedAt: at(1)},
		{ID: uuid.New(), Status: string(domain.StatusPaymentFailed), CreatedAt: at(2)},
		{ID: uuid.New(), Status: string(domain.StatusLegacyFailed), CreatedAt: at(3)},
	}}
	requests := &fakeRequestSource{rows: []ports.PreBookingRow{
		{ID: uuid.New(), Status: string(domain.RequestNew), CreatedAt: at(4)},
	}}
	svc := New(bookings, requests)
	ctx := context.Background()

	// Booking-only stage: legacy failed rows bucket with payment_failed.
	page, err := svc.List(ctx, Query{Stage: domain.StagePaymentFailed})
	if err != nil {
		t.Fatalf("List payment_failed: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("payment_failed items = %d, want 2", len(page.Items))
	}
	for _, item := range page.Items {
		if item.Kind != KindBooking || item.Stage != domain.StagePaymentFailed {
			t.Errorf("unexpected item %+v", item)
		}
	}

	// Request-only stage.
	page, err = svc.List(ctx, Query{Stage: domain.StageIntake})
	if err != nil {
		t.Fatalf("List intake: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Kind != KindPreBooking {
		t.Fatalf("intake items = %+v", page.Items)
	}

	if _, err := svc.List(ctx, Query{Stage: "galactic"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown stage err = %v, want validation", err)
	}
}

func TestListKindFilter(t *testing.T) {
	bookings := &fakeBookingSource{rows: []repository.FeedBooking{
		{ID: uuid.New(), Status: string(domain.StatusScheduled), CreatedAt: at(1)},
	}}
	requests := &fakeRequestSource{rows: []ports.PreBookingRow{
		{ID: uuid.New(), Status: string(domain.RequestNew), CreatedAt: at(2)},
	}}
	svc := New(bookings, requests)
	ctx := context.Background()

	page, err := svc.List(ctx, Query{Kind: KindBooking})
	if err != nil {
		t.Fatalf("List bookings: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Kind != KindBooking {
		t.Fatalf("booking items = %+v", page.Items)
	}

	page, err = svc.List(ctx, Query{Kind: KindPreBooking})
	if err != nil {
		t.Fatalf("List pre-bookings: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Kind != KindPreBooking {
		t.Fatalf("pre-booking items = %+v", page.Items)
	}

	if _, err := svc.List(ctx, Query{Kind: "invoice"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown kind err = %v, want validation", err)
	}
}

func TestListWithoutRequestSource(t *testing.T) {
	bookings := &fakeBookingSource{rows: []repository.FeedBooking{
		{ID: uuid.New(), Status: string(domain.StatusScheduled), CreatedAt: at(1)},
	}}
	svc := New(bookings, nil)

	page, err := svc.List(context.Background(), Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Kind != KindBooking {
		t.Fatalf("items = %+v", page.Items)
	}
}
