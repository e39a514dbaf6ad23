// Package feed builds the unified funnel feed: bookings and pre-booking
// intake requests merged into one keyset-paginated stream, newest first.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/ports"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Item kinds in the unified feed.
const (
	KindBooking    = "booking"
	KindPreBooking = "pre_booking"
)

// BookingSource supplies booking rows for the feed.
type BookingSource interface {
	ListFeedBookings(ctx context.Context, q repository.FeedQuery) ([]repository.FeedBooking, error)
}

// Service merges the two feed sources.
type Service struct {
	bookings BookingSource
	requests ports.PreBookingFeed
}

// New creates a feed service. requests may be nil when the intake module is
// disabled; the feed then carries bookings only.
func New(bookings BookingSource, requests ports.PreBookingFeed) *Service {
	return &Service{bookings: bookings, requests: requests}
}

// SetRequestSource injects the pre-booking source after construction. Used by
// the composition root to break the bookings -> intake dependency cycle.
func (s *Service) SetRequestSource(requests ports.PreBookingFeed) {
	s.requests = requests
}

// Item is one row of the unified feed.
type Item struct {
	Kind          string     `json:"kind"`
	ID            uuid.UUID  `json:"id"`
	Stage         string     `json:"stage"`
	Status        string     `json:"status"`
	CustomerID    *uuid.UUID `json:"customerId,omitempty"`
	CustomerName  *string    `json:"customerName,omitempty"`
	CustomerEmail *string    `json:"customerEmail,omitempty"`
	AmountCents   *int64     `json:"amountCents,omitempty"`
	ServiceDate   *time.Time `json:"serviceDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Query selects one feed page.
type Query struct {
	Limit  int
	Cursor string
	Kind   string
	Stage  string
	Search string
}

// Page is one feed page. NextCursor is empty on the last page.
type Page struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// List returns one page of the unified feed. Both sources are read with the
// same cursor and one row past the limit, then merge-sorted on
// (created_at, id) descending; the extra row tells us whether a next page
// exists without a count query.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	cursor, err := DecodeCursor(q.Cursor)
	if err != nil {
		return Page{}, err
	}

	var bookingStatuses []domain.Status
	var requestStatuses []domain.RequestStatus
	includeBookings, includeRequests := true, s.requests != nil
	switch q.Kind {
	case "":
	case KindBooking:
		includeRequests = false
	case KindPreBooking:
		includeBookings = false
	default:
		return Page{}, apperr.Validation(fmt.Sprintf("unknown row kind %q", q.Kind))
	}
	if q.Stage != "" {
		bookingStatuses = domain.BookingStatusesForStage(q.Stage)
		requestStatuses = domain.RequestStatusesForStage(q.Stage)
		if bookingStatuses == nil && requestStatuses == nil {
			return Page{}, apperr.Validation(fmt.Sprintf("unknown funnel stage %q", q.Stage))
		}
		includeBookings = includeBookings && bookingStatuses != nil
		includeRequests = includeRequests && requestStatuses != nil
	}

	var beforeCreatedAt *time.Time
	var beforeID *uuid.UUID
	if cursor != nil {
		beforeCreatedAt = &cursor.CreatedAt
		beforeID = &cursor.ID
	}

	// The two sources are independent queries, so fetch them concurrently.
	var bookingItems, requestItems []Item
	g, gctx := errgroup.WithContext(ctx)

	if includeBookings {
		g.Go(func() error {
			rows, err := s.bookings.ListFeedBookings(gctx, repository.FeedQuery{
				Limit:           limit + 1,
				BeforeCreatedAt: beforeCreatedAt,
				BeforeID:        beforeID,
				Statuses:        statusStrings(bookingStatuses),
				Search:          q.Search,
			})
			if err != nil {
				return fmt.Errorf("list feed bookings: %w", err)
			}
			for _, row := range rows {
				bookingItems = append(bookingItems, Item{
					Kind:          KindBooking,
					ID:            row.ID,
					Stage:         domain.FunnelStageForBooking(domain.Status(row.Status)),
					Status:        row.Status,
					CustomerID:    row.CustomerID,
					CustomerName:  row.CustomerName,
					CustomerEmail: row.CustomerEmail,
					AmountCents:   row.AmountCents,
					ServiceDate:   row.ServiceDate,
					CreatedAt:     row.CreatedAt,
				})
			}
			return nil
		})
	}

	if includeRequests {
		g.Go(func() error {
			rows, err := s.requests.ListFeedRequests(gctx, ports.PreBookingFeedQuery{
				Limit:           limit + 1,
				BeforeCreatedAt: beforeCreatedAt,
				BeforeID:        beforeID,
				Statuses:        requestStatusStrings(requestStatuses),
				Search:          q.Search,
			})
			if err != nil {
				return fmt.Errorf("list feed requests: %w", err)
			}
			for _, row := range rows {
				requestItems = append(requestItems, Item{
					Kind:          KindPreBooking,
					ID:            row.ID,
					Stage:         domain.FunnelStageForRequest(domain.RequestStatus(row.Status)),
					Status:        row.Status,
					CustomerID:    row.CustomerID,
					CustomerName:  row.CustomerName,
					CustomerEmail: row.CustomerEmail,
					AmountCents:   row.QuoteCents,
					CreatedAt:     row.CreatedAt,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	merged := mergeDesc(bookingItems, requestItems)
	page := Page{Items: merged}
	if len(merged) > limit {
		page.Items = merged[:limit]
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if page.Items == nil {
		page.Items = []Item{}
	}
	return page, nil
}

// mergeDesc merge-sorts two (created_at, id)-descending slices.
func mergeDesc(a, b []Item) []Item {
	out := make([]Item, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if itemAfter(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// itemAfter reports whether x sorts before y in descending (created_at, id)
// order, matching the SQL `(created_at, id) DESC` composite.
func itemAfter(x, y Item) bool {
	if !x.CreatedAt.Equal(y.CreatedAt) {
		return x.CreatedAt.After(y.CreatedAt)
	}
	return bytes.Compare(x.ID[:], y.ID[:]) > 0
}

func statusStrings(statuses []domain.Status) []string {
	if statuses == nil {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func requestStatusStrings(statuses []domain.RequestStatus) []string {
	if statuses == nil {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
