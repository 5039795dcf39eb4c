package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
)

// AcceptanceUsecase flips a report between Pending and Accepted. The two
// transitions are the whole machine: flat, binary, independent per report.
// At most one mutation per report may be in flight; concurrent calls on the
// same report are rejected until the prior one resolves.
type AcceptanceUsecase struct {
	store ReportStore
	feed  *FeedUsecase

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewAcceptanceUsecase(store ReportStore, feed *FeedUsecase) *AcceptanceUsecase {
	return &AcceptanceUsecase{
		store:    store,
		feed:     feed,
		inFlight: make(map[string]struct{}),
	}
}

func (uc *AcceptanceUsecase) Accept(ctx context.Context, kind herdline.Kind, id string) (domain.Report, error) {
	return uc.setAccepted(ctx, kind, id, true)
}

func (uc *AcceptanceUsecase) Unaccept(ctx context.Context, kind herdline.Kind, id string) (domain.Report, error) {
	return uc.setAccepted(ctx, kind, id, false)
}

func (uc *AcceptanceUsecase) setAccepted(ctx context.Context, kind herdline.Kind, id string, accepted bool) (domain.Report, error) {
	if id == "" {
		return domain.Report{}, fmt.Errorf("missing report id")
	}

	key := kind.String() + "/" + id
	uc.mu.Lock()
	if _, busy := uc.inFlight[key]; busy {
		uc.mu.Unlock()
		return domain.Report{}, domain.UpdateInFlightError{Kind: kind, ID: id}
	}
	uc.inFlight[key] = struct{}{}
	uc.mu.Unlock()

	defer func() {
		uc.mu.Lock()
		delete(uc.inFlight, key)
		uc.mu.Unlock()
	}()

	report, err := uc.store.UpdateAcceptance(ctx, kind, id, accepted)
	if err != nil {
		// The write is not assumed to have partially applied; the item keeps
		// its last known-good state and the caller may retry.
		return domain.Report{}, err
	}

	if uc.feed != nil {
		uc.feed.Apply(domain.FeedItem{Kind: kind, Report: report})
	}
	return report, nil
}
