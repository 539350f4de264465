package services

import (
	"context"
	"time"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/kpi"
	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/eventbus"
)

type KPIService struct {
	repo      kpi.Repository
	publisher eventbus.EventBus
}

func NewKPIService(repo kpi.Repository, publisher eventbus.EventBus) *KPIService {
	return &KPIService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *KPIService) GetPaginated(ctx context.Context, params *kpi.FindParams) ([]kpi.Sample, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]kpi.Sample, error) {
		return s.repo.GetPaginated(txCtx, params)
	})
}

func (s *KPIService) Count(ctx context.Context, params *kpi.FindParams) (int64, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx, params)
	})
}

func (s *KPIService) GetByID(ctx context.Context, id uint) (kpi.Sample, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (kpi.Sample, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *KPIService) GetByWeekDate(ctx context.Context, weekDate time.Time) (kpi.Sample, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (kpi.Sample, error) {
		return s.repo.GetByWeekDate(txCtx, weekDate)
	})
}

func (s *KPIService) Summary(ctx context.Context, from, to time.Time) (kpi.Summary, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (kpi.Summary, error) {
		return s.repo.Summary(txCtx, from, to)
	})
}

func (s *KPIService) Create(ctx context.Context, data *kpi.CreateDTO) (kpi.Sample, error) {
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (kpi.Sample, error) {
		entity, err := data.ToEntity()
		if err != nil {
			return kpi.Sample{}, err
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return kpi.Sample{}, err
	}
	s.publisher.Publish(&kpi.CreatedEvent{Result: created})
	return created, nil
}

func (s *KPIService) Update(ctx context.Context, id uint, data *kpi.UpdateDTO) (kpi.Sample, error) {
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (kpi.Sample, error) {
		return s.repo.Update(txCtx, id, data.ToValues())
	})
	if err != nil {
		return kpi.Sample{}, err
	}
	s.publisher.Publish(&kpi.UpdatedEvent{Result: updated})
	return updated, nil
}

func (s *KPIService) Delete(ctx context.Context, id uint) (kpi.Sample, error) {
	deleted, err := composables.InTxResult(ctx, func(txCtx context.Context) (kpi.Sample, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return kpi.Sample{}, err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return kpi.Sample{}, err
		}
		return entity, nil
	})
	if err != nil {
		return kpi.Sample{}, err
	}
	s.publisher.Publish(&kpi.DeletedEvent{Result: deleted})
	return deleted, nil
}
