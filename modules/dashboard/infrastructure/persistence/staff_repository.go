package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/repo"
)

const (
	staffFindQuery = `
		SELECT
			m.id,
			m.name,
			m.position,
			m.department,
			m.status,
			m.created_at,
			m.updated_at
		FROM staff_members m`

	staffCountQuery = `SELECT COUNT(m.id) FROM staff_members m`

	staffDepartmentsQuery = `SELECT DISTINCT m.department FROM staff_members m ORDER BY m.department`

	staffDeleteQuery = `DELETE FROM staff_members WHERE id = $1`
)

type PgStaffRepository struct{}

func NewStaffRepository() staff.Repository {
	return &PgStaffRepository{}
}

func (g *PgStaffRepository) buildFilters(params *staff.FindParams) ([]string, []interface{}) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if params.Department != "" {
		args = append(args, params.Department)
		where = append(where, fmt.Sprintf("m.department = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("m.status = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(m.name ILIKE $%d OR m.position ILIKE $%d)", n, n))
	}

	return where, args
}

func (g *PgStaffRepository) queryMembers(ctx context.Context, query string, args ...interface{}) ([]staff.Member, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query staff members")
	}
	defer rows.Close()

	members := make([]staff.Member, 0)
	for rows.Next() {
		var (
			id         uint
			name       string
			position   string
			department string
			status     string
			createdAt  time.Time
			updatedAt  time.Time
		)
		if err := rows.Scan(
			&id,
			&name,
			&position,
			&department,
			&status,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan staff member")
		}
		members = append(members, staff.Hydrate(id, name, position, department, staff.Status(status), createdAt, updatedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read staff members")
	}
	return members, nil
}

func (g *PgStaffRepository) GetPaginated(ctx context.Context, params *staff.FindParams) ([]staff.Member, error) {
	if params == nil {
		params = &staff.FindParams{}
	}

	where, args := g.buildFilters(params)
	query := repo.Join(
		staffFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY m.name ASC, m.department ASC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	members, err := g.queryMembers(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paginated staff members")
	}
	return members, nil
}

func (g *PgStaffRepository) Count(ctx context.Context, params *staff.FindParams) (int64, error) {
	if params == nil {
		params = &staff.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(params)
	query := repo.Join(staffCountQuery, repo.JoinWhere(where...))

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count staff members")
	}
	return count, nil
}

func (g *PgStaffRepository) GetByID(ctx context.Context, id uint) (staff.Member, error) {
	members, err := g.queryMembers(ctx, staffFindQuery+" WHERE m.id = $1", id)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, fmt.Sprintf("failed to query staff member with id: %d", id))
	}
	if len(members) == 0 {
		return staff.Member{}, fmt.Errorf("id: %d: %w", id, staff.ErrNotFound)
	}
	return members[0], nil
}

func (g *PgStaffRepository) GetByNameAndDepartment(ctx context.Context, name, department string) (staff.Member, error) {
	members, err := g.queryMembers(ctx, staffFindQuery+" WHERE m.name = $1 AND m.department = $2", name, department)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, fmt.Sprintf("failed to query staff member %q in %q", name, department))
	}
	if len(members) == 0 {
		return staff.Member{}, fmt.Errorf("name: %s, department: %s: %w", name, department, staff.ErrNotFound)
	}
	return members[0], nil
}

func (g *PgStaffRepository) Create(ctx context.Context, member staff.Member) (staff.Member, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{"name", "position", "department", "status"}
	values := []interface{}{member.Name(), member.Position(), member.Department(), string(member.Status())}

	var id uint
	q := repo.Insert("staff_members", fields, "id")
	if err := tx.QueryRow(ctx, q, values...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return staff.Member{}, fmt.Errorf("name: %s, department: %s: %w", member.Name(), member.Department(), staff.ErrAlreadyExists)
		}
		return staff.Member{}, errors.Wrap(err, "failed to insert staff member")
	}

	return g.GetByID(ctx, id)
}

func (g *PgStaffRepository) Update(ctx context.Context, id uint, values staff.UpdateValues) (staff.Member, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Member{}, errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{"updated_at"}
	args := []interface{}{time.Now()}

	if values.Position != nil {
		fields = append(fields, "position")
		args = append(args, *values.Position)
	}
	if values.Status != nil {
		fields = append(fields, "status")
		args = append(args, string(*values.Status))
	}

	args = append(args, id)
	q := repo.Update("staff_members", fields, fmt.Sprintf("id = $%d", len(args))) + " RETURNING id"

	var updatedID uint
	if err := tx.QueryRow(ctx, q, args...).Scan(&updatedID); err != nil {
		if isNoRows(err) {
			return staff.Member{}, fmt.Errorf("id: %d: %w", id, staff.ErrNotFound)
		}
		return staff.Member{}, errors.Wrap(err, fmt.Sprintf("failed to update staff member with id: %d", id))
	}

	return g.GetByID(ctx, updatedID)
}

func (g *PgStaffRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, staffDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to delete staff member with id: %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("id: %d: %w", id, staff.ErrNotFound)
	}
	return nil
}

func (g *PgStaffRepository) Departments(ctx context.Context) ([]string, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, staffDepartmentsQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query departments")
	}
	defer rows.Close()

	departments := make([]string, 0)
	for rows.Next() {
		var department string
		if err := rows.Scan(&department); err != nil {
			return nil, errors.Wrap(err, "failed to scan department")
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read departments")
	}
	return departments, nil
}
