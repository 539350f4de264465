package services

import (
	"context"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/eventbus"
)

type StaffService struct {
	repo      staff.Repository
	publisher eventbus.EventBus
}

func NewStaffService(repo staff.Repository, publisher eventbus.EventBus) *StaffService {
	return &StaffService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *StaffService) GetPaginated(ctx context.Context, params *staff.FindParams) ([]staff.Member, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]staff.Member, error) {
		return s.repo.GetPaginated(txCtx, params)
	})
}

func (s *StaffService) Count(ctx context.Context, params *staff.FindParams) (int64, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx, params)
	})
}

func (s *StaffService) GetByID(ctx context.Context, id uint) (staff.Member, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (staff.Member, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *StaffService) GetByNameAndDepartment(ctx context.Context, name, department string) (staff.Member, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (staff.Member, error) {
		return s.repo.GetByNameAndDepartment(txCtx, name, department)
	})
}

func (s *StaffService) Departments(ctx context.Context) ([]string, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]string, error) {
		return s.repo.Departments(txCtx)
	})
}

func (s *StaffService) Create(ctx context.Context, data *staff.CreateDTO) (staff.Member, error) {
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (staff.Member, error) {
		return s.repo.Create(txCtx, data.ToEntity())
	})
	if err != nil {
		return staff.Member{}, err
	}
	s.publisher.Publish(&staff.CreatedEvent{Result: created})
	return created, nil
}

func (s *StaffService) Update(ctx context.Context, id uint, data *staff.UpdateDTO) (staff.Member, error) {
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (staff.Member, error) {
		return s.repo.Update(txCtx, id, data.ToValues())
	})
	if err != nil {
		return staff.Member{}, err
	}
	s.publisher.Publish(&staff.UpdatedEvent{Result: updated})
	return updated, nil
}

func (s *StaffService) Delete(ctx context.Context, id uint) (staff.Member, error) {
	deleted, err := composables.InTxResult(ctx, func(txCtx context.Context) (staff.Member, error) {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return staff.Member{}, err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return staff.Member{}, err
		}
		return entity, nil
	})
	if err != nil {
		return staff.Member{}, err
	}
	s.publisher.Publish(&staff.DeletedEvent{Result: deleted})
	return deleted, nil
}
