package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
)

// FeedUsecase merges the five independently stored report streams into one
// live collection. It owns the aggregated feed exclusively; readers get
// copies and writers go through the store.
type FeedUsecase struct {
	store ReportStore

	mu      sync.Mutex
	byKind  map[herdline.Kind][]domain.FeedItem
	ready   bool
	initErr error
	unsubs  []Unsubscribe
}

func NewFeedUsecase(store ReportStore) *FeedUsecase {
	return &FeedUsecase{
		store:  store,
		byKind: make(map[herdline.Kind][]domain.FeedItem),
	}
}

// Initialize lists every kind concurrently and joins the results behind an
// all-or-nothing barrier. A failure on any kind fails the whole fetch;
// partial feeds are never surfaced as ready.
func (uc *FeedUsecase) Initialize(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	var resultsMu sync.Mutex
	results := make(map[herdline.Kind][]domain.Report, len(herdline.Kinds()))

	for _, kind := range herdline.Kinds() {
		kind := kind
		eg.Go(func() error {
			items, err := uc.store.List(ctx, kind)
			if err != nil {
				return fmt.Errorf("failed to list %s reports: %v", kind, err)
			}
			resultsMu.Lock()
			results[kind] = items
			resultsMu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		uc.mu.Lock()
		uc.initErr = err
		uc.mu.Unlock()
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	for kind, items := range results {
		uc.byKind[kind] = tagged(kind, items)
	}
	uc.ready = true
	uc.initErr = nil
	return nil
}

// Ready reports whether the initial fetch completed for all five kinds.
func (uc *FeedUsecase) Ready() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.ready
}

// Err returns the startup fetch failure, if any.
func (uc *FeedUsecase) Err() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.initErr
}

// Subscribe opens one live channel per kind. Each synced emission replaces
// that kind's items wholesale, leaving the other kinds untouched. A kind
// whose channel fails keeps its last snapshot and the feed degrades instead
// of tearing down.
func (uc *FeedUsecase) Subscribe(ctx context.Context) {
	for _, kind := range herdline.Kinds() {
		kind := kind
		unsub, err := uc.store.Subscribe(ctx, kind,
			func(items []domain.Report, synced bool) {
				if !synced {
					return
				}
				uc.replace(kind, items)
			},
			func(err error) {
				slog.Error(
					"report subscription failed",
					slog.String("kind", kind.String()),
					slog.String("error", err.Error()),
					slog.String("module", "feed"),
				)
			},
		)
		if err != nil {
			slog.Error(
				"failed to open report subscription",
				slog.String("kind", kind.String()),
				slog.String("error", err.Error()),
				slog.String("module", "feed"),
			)
			continue
		}

		uc.mu.Lock()
		uc.unsubs = append(uc.unsubs, unsub)
		uc.mu.Unlock()
	}
}

// Teardown releases every open subscription. Safe to call repeatedly and
// before Subscribe has run.
func (uc *FeedUsecase) Teardown() {
	uc.mu.Lock()
	unsubs := uc.unsubs
	uc.unsubs = nil
	uc.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Snapshot returns a copy of the aggregated feed. Ordering across kinds is
// unspecified here; the projector derives the display order.
func (uc *FeedUsecase) Snapshot() []domain.FeedItem {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := make([]domain.FeedItem, 0)
	for _, kind := range herdline.Kinds() {
		out = append(out, uc.byKind[kind]...)
	}
	return out
}

// Apply replaces the feed entry matching the item's (kind, id) with the
// given report, or inserts it if the entry is not present yet. Used to
// reflect a confirmed write before the subscription echo lands.
func (uc *FeedUsecase) Apply(item domain.FeedItem) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	items := uc.byKind[item.Kind]
	for i := range items {
		if items[i].Report.ID == item.Report.ID {
			items[i] = item
			return
		}
	}
	uc.byKind[item.Kind] = append(items, item)
}

// replace swaps in a fresh snapshot for one kind. The snapshot is
// authoritative for its kind, so this is a full replace, not a diff.
func (uc *FeedUsecase) replace(kind herdline.Kind, items []domain.Report) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.byKind[kind] = tagged(kind, items)
}

// tagged wraps reports as feed items, deduplicating by id within the
// snapshot. Later occurrences replace earlier ones.
func tagged(kind herdline.Kind, items []domain.Report) []domain.FeedItem {
	out := make([]domain.FeedItem, 0, len(items))
	seen := make(map[string]int, len(items))

	for _, report := range items {
		item := domain.FeedItem{Kind: kind, Report: report}
		if i, ok := seen[report.ID]; ok {
			out[i] = item
			continue
		}
		seen[report.ID] = len(out)
		out = append(out, item)
	}
	return out
}
