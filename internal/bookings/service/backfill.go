package service

import (
	"context"

	"cleanops_backend/internal/bookings/domain"
)

// BackfillFailure records one booking the backfill could not convert.
type BackfillFailure struct {
	BookingID string `json:"bookingId"`
	Error     string `json:"error"`
}

// BackfillReport summarizes one legacy backfill run. A dry run produces the
// same counts as a live run over the same data, it just skips the writes.
type BackfillReport struct {
	DryRun          bool              `json:"dryRun"`
	Scanned         int               `json:"scanned"`
	Converted       int               `json:"converted"`
	MissingEvidence int               `json:"missingEvidence"`
	Failures        []BackfillFailure `json:"failures,omitempty"`
}

// BackfillLegacyFailed reclassifies bookings still carrying the retired
// "failed" status as payment_failed. A booking is only converted when the
// payments ledger corroborates it with at least one failed payment; rows
// without evidence are left untouched and reported. Each conversion runs in
// its own transaction so one bad row cannot abort the rest.
func (s *Service) BackfillLegacyFailed(ctx context.Context, dryRun bool) (BackfillReport, error) {
	report := BackfillReport{DryRun: dryRun}

	bookings, err := s.store.ListLegacyFailedBookings(ctx)
	if err != nil {
		return report, err
	}

	for _, b := range bookings {
		report.Scanned++

		hasEvidence, err := s.store.HasFailedPayment(ctx, b.ID)
		if err != nil {
			report.Failures = append(report.Failures, BackfillFailure{
				BookingID: b.ID.String(), Error: err.Error(),
			})
			continue
		}
		if !hasEvidence {
			report.MissingEvidence++
			s.log.Warn("legacy failed booking has no failed payment evidence, skipping",
				"booking_id", b.ID)
			continue
		}

		if dryRun {
			report.Converted++
			continue
		}

		booking := b
		err = s.store.WithinTx(ctx, func(tx Store) error {
			fresh, err := tx.GetBooking(ctx, booking.ID)
			if err != nil {
				return mapStoreErr(err)
			}
			if domain.Status(fresh.Status) != domain.StatusLegacyFailed {
				// Converted by a concurrent run; nothing to do.
				return nil
			}
			reason := "legacy failed status reclassified with failed payment evidence"
			_, err = s.applyTransition(ctx, tx, fresh, domain.StatusPaymentFailed,
				"legacy_backfill", &reason, nil, nil)
			return err
		})
		if err != nil {
			report.Failures = append(report.Failures, BackfillFailure{
				BookingID: b.ID.String(), Error: err.Error(),
			})
			continue
		}
		report.Converted++
	}

	s.log.Info("legacy backfill finished",
		"dry_run", dryRun,
		"scanned", report.Scanned,
		"converted", report.Converted,
		"missing_evidence", report.MissingEvidence,
		"failures", len(report.Failures),
	)
	return report, nil
}
