package service

import (
	"context"
	"xhsbridge/internal/notes"
	"xhsbridge/internal/platform/xhs"

	"golang.org/x/sync/errgroup"
)

// enrich replaces the truncated search descriptions with the full text from each note's detail.
// A failed detail leaves its entry untouched.
func (s *NoteService) enrich(ctx context.Context, session *xhs.Session, process bool, entries []notes.Entry) {
	ctx, span := tracer.Start(ctx, "enrich")
	defer span.End()

	group := errgroup.Group{}
	group.SetLimit(s.config.Enrich.Concurrency)

	for i := range entries {
		entry := &entries[i]
		group.Go(func() error {
			detail, category, err := s.fetchDetail(ctx, session, entry.Note.ID, entry.AccessToken)
			if err != nil {
				s.recordOutcome(ctx, session, process, category, err)
				s.tel.ReportWarning(report_enrich, err, category, entry.Note.ID)
				return nil
			}

			entry.Note.Description = detail.Description
			if entry.Note.CoverURL == notes.DefaultCoverURL {
				entry.Note.CoverURL = detail.CoverURL
			}
			return nil
		})
	}

	// the goroutines never fail
	_ = group.Wait()
}
