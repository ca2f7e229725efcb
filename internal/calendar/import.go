package calendar

import (
	"errors"
	"time"

	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Added   int
	Skipped int
}

// Import adds each occurrence as a one-time event. Occurrences outside the
// scheduling window are skipped rather than failing the whole batch.
func (s *Store) Import(occs []model.Occurrence) ImportResult {
	var res ImportResult
	for _, occ := range occs {
		err := s.AddEvent(occ.Summary, occ.Start, occ.Description)
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, ErrOutOfRange):
			res.Skipped++
			appLog.Debug("import: occurrence outside window",
				"uid", occ.UID,
				"summary", occ.Summary,
				"start", occ.Start.Format(time.RFC3339),
			)
		default:
			res.Skipped++
			appLog.Error("import: add failed", err, "uid", occ.UID)
		}
	}
	return res
}
