package usecase

import (
	"context"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
)

// SnapshotFunc receives the current items of one kind. synced reports
// whether the emission reflects a fully reconciled state; the aggregator
// ignores emissions with synced == false.
type SnapshotFunc func(items []domain.Report, synced bool)

// ErrorFunc receives asynchronous subscription failures.
type ErrorFunc func(err error)

// Unsubscribe releases one kind's live channel. Safe to call more than once.
type Unsubscribe func()

// ReportStore defines the per-kind storage operations the feed core
// consumes: one generic contract parameterized by kind rather than five
// near-identical branches per operation.
type ReportStore interface {
	List(ctx context.Context, kind herdline.Kind) ([]domain.Report, error)
	Get(ctx context.Context, kind herdline.Kind, id string) (domain.Report, error)
	Create(ctx context.Context, kind herdline.Kind, report domain.Report) (domain.Report, error)
	UpdateAcceptance(ctx context.Context, kind herdline.Kind, id string, accepted bool) (domain.Report, error)
	Subscribe(ctx context.Context, kind herdline.Kind, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
}

// AddressResolver reverse-geocodes coordinates into a human-readable
// address for reports submitted without one.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, coords herdline.Coordinates) (string, error)
}
