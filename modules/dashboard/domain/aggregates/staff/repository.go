package staff

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	ErrNotFound      = errors.New("staff member not found")
	ErrAlreadyExists = errors.New("staff member already exists in department")
)

// FindParams filters and pages roster listings. Department matches
// exactly, Search matches name or position case-insensitively, Status
// filters by employment state when non-empty. Results are ordered by
// name, then department.
type FindParams struct {
	Department string
	Search     string
	Status     Status
	Limit      int
	Offset     int
}

// UpdateValues carries a partial update. Nil fields keep their stored
// value. Name and department are the natural key and never change
// through updates.
type UpdateValues struct {
	Position *string
	Status   *Status
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Member, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetByID(ctx context.Context, id uint) (Member, error)
	GetByNameAndDepartment(ctx context.Context, name, department string) (Member, error)
	Create(ctx context.Context, member Member) (Member, error)
	Update(ctx context.Context, id uint, values UpdateValues) (Member, error)
	Delete(ctx context.Context, id uint) error
	Departments(ctx context.Context) ([]string, error)
}
