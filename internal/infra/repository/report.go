package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/herdline/herdline"
	"github.com/herdline/herdline/internal/domain"
	"github.com/herdline/herdline/internal/infra/database/models"
	"github.com/herdline/herdline/internal/service"
	"github.com/herdline/herdline/internal/usecase"
)

const getCacheTTL = 60 * time.Second

// kindOps is one kind's storage handle. The registry in ReportRepository is
// the single kind -> handle mapping; operations never branch per kind.
type kindOps struct {
	list   func(ctx context.Context, db *gorm.DB) ([]domain.Report, error)
	get    func(ctx context.Context, db *gorm.DB, id string) (domain.Report, error)
	create func(ctx context.Context, db *gorm.DB, report domain.Report) (domain.Report, error)
	update func(ctx context.Context, db *gorm.DB, id string, accepted bool) (domain.Report, error)
}

func opsFor[T models.Report](fromDomain func(domain.Report) T) kindOps {
	return kindOps{
		list: func(ctx context.Context, db *gorm.DB) ([]domain.Report, error) {
			var rows []T
			if err := db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]domain.Report, 0, len(rows))
			for _, row := range rows {
				out = append(out, row.ToDomain())
			}
			return out, nil
		},
		get: func(ctx context.Context, db *gorm.DB, id string) (domain.Report, error) {
			var row T
			err := db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Report{}, domain.NotFoundError{Resource: "report"}
			}
			if err != nil {
				return domain.Report{}, err
			}
			return row.ToDomain(), nil
		},
		create: func(ctx context.Context, db *gorm.DB, report domain.Report) (domain.Report, error) {
			row := fromDomain(report)
			if err := db.WithContext(ctx).Create(&row).Error; err != nil {
				return domain.Report{}, err
			}
			// Reload so the database-assigned timestamps come back.
			var created T
			if err := db.WithContext(ctx).Where("id = ?", row.ReportID()).Take(&created).Error; err != nil {
				return domain.Report{}, err
			}
			return created.ToDomain(), nil
		},
		update: func(ctx context.Context, db *gorm.DB, id string, accepted bool) (domain.Report, error) {
			var row T
			res := db.WithContext(ctx).Model(&row).Where("id = ?", id).Update("is_accepted", accepted)
			if res.Error != nil {
				return domain.Report{}, res.Error
			}
			if res.RowsAffected == 0 {
				return domain.Report{}, domain.NotFoundError{Resource: "report"}
			}
			if err := db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
				return domain.Report{}, err
			}
			return row.ToDomain(), nil
		},
	}
}

type ReportRepository struct {
	db     *gorm.DB
	rdb    *redis.Client
	mc     *memcache.Client
	signal *service.SignalService
	ops    map[herdline.Kind]kindOps
}

func NewReportRepository(db *gorm.DB, rdb *redis.Client, mc *memcache.Client, signal *service.SignalService) *ReportRepository {
	return &ReportRepository{
		db:     db,
		rdb:    rdb,
		mc:     mc,
		signal: signal,
		ops: map[herdline.Kind]kindOps{
			herdline.KindCasualty: opsFor(models.CasualtyFromDomain),
			herdline.KindDonation: opsFor(models.DonationFromDomain),
			herdline.KindFlocking: opsFor(models.FlockingFromDomain),
			herdline.KindGarbage:  opsFor(models.GarbageFromDomain),
			herdline.KindAdoption: opsFor(models.AdoptionFromDomain),
		},
	}
}

func (r *ReportRepository) opsOf(kind herdline.Kind) (kindOps, error) {
	ops, ok := r.ops[kind]
	if !ok {
		return kindOps{}, fmt.Errorf("unknown report kind: %s", kind)
	}
	return ops, nil
}

func (r *ReportRepository) List(ctx context.Context, kind herdline.Kind) ([]domain.Report, error) {
	ops, err := r.opsOf(kind)
	if err != nil {
		return nil, err
	}
	return ops.list(ctx, r.db)
}

func (r *ReportRepository) Get(ctx context.Context, kind herdline.Kind, id string) (domain.Report, error) {
	ops, err := r.opsOf(kind)
	if err != nil {
		return domain.Report{}, err
	}

	key := cacheKey(kind, id)
	if r.mc != nil {
		if item, err := r.mc.Get(key); err == nil {
			var report domain.Report
			if err := json.Unmarshal(item.Value, &report); err == nil {
				return report, nil
			}
		}
	}

	report, err := ops.get(ctx, r.db, id)
	if err != nil {
		return domain.Report{}, err
	}

	if r.mc != nil {
		if value, err := json.Marshal(report); err == nil {
			_ = r.mc.Set(&memcache.Item{
				Key:        key,
				Value:      value,
				Expiration: int32(getCacheTTL.Seconds()),
			})
		}
	}
	return report, nil
}

func (r *ReportRepository) Create(ctx context.Context, kind herdline.Kind, report domain.Report) (domain.Report, error) {
	ops, err := r.opsOf(kind)
	if err != nil {
		return domain.Report{}, err
	}

	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	created, err := ops.create(ctx, r.db, report)
	if err != nil {
		return domain.Report{}, err
	}

	r.publish(ctx, herdline.Event{
		Kind:      kind,
		Action:    herdline.EventActionCreated,
		ID:        created.ID,
		Timestamp: created.CreatedAt,
	})
	return created, nil
}

func (r *ReportRepository) UpdateAcceptance(ctx context.Context, kind herdline.Kind, id string, accepted bool) (domain.Report, error) {
	ops, err := r.opsOf(kind)
	if err != nil {
		return domain.Report{}, err
	}

	updated, err := ops.update(ctx, r.db, id, accepted)
	if err != nil {
		return domain.Report{}, err
	}

	if r.mc != nil {
		_ = r.mc.Delete(cacheKey(kind, id))
	}

	r.publish(ctx, herdline.Event{
		Kind:      kind,
		Action:    herdline.EventActionUpdated,
		ID:        id,
		Timestamp: updated.UpdatedAt,
	})
	return updated, nil
}

// Subscribe opens this kind's redis channel and re-lists the table on every
// event, emitting the fresh snapshot as synced. The change feed only tells
// us that something moved; the table is the source of truth.
func (r *ReportRepository) Subscribe(ctx context.Context, kind herdline.Kind, onSnapshot usecase.SnapshotFunc, onError usecase.ErrorFunc) (usecase.Unsubscribe, error) {
	if _, err := r.opsOf(kind); err != nil {
		return nil, err
	}

	pubsub := r.rdb.Subscribe(ctx, service.ChannelFor(kind))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	go func() {
		for range pubsub.Channel() {
			items, err := r.List(ctx, kind)
			if err != nil {
				onError(err)
				continue
			}
			onSnapshot(items, true)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				slog.Warn(
					"failed to close report subscription",
					slog.String("kind", kind.String()),
					slog.String("error", err.Error()),
					slog.String("module", "repository"),
				)
			}
		})
	}, nil
}

func (r *ReportRepository) publish(ctx context.Context, event herdline.Event) {
	if r.signal == nil {
		return
	}
	if err := r.signal.Publish(ctx, event); err != nil {
		// The write itself succeeded; subscribers will catch up on the next
		// event or re-list.
		slog.Warn(
			"failed to publish report event",
			slog.String("kind", event.Kind.String()),
			slog.String("error", err.Error()),
			slog.String("module", "repository"),
		)
	}
}

func cacheKey(kind herdline.Kind, id string) string {
	return "herdline:report:" + kind.String() + ":" + id
}

var _ usecase.ReportStore = (*ReportRepository)(nil)
