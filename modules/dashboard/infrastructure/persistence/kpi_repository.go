package persistence

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/kpi"
	"github.com/plantboard/plantboard/pkg/composables"
	"github.com/plantboard/plantboard/pkg/repo"
)

func isNoRows(err error) bool {
	return stderrors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
}

const (
	kpiFindQuery = `
		SELECT
			k.id,
			k.week_date,
			k.efficiency,
			k.production_rate,
			k.defects_ppm,
			k.created_at,
			k.updated_at
		FROM kpi_data k`

	kpiCountQuery = `SELECT COUNT(k.id) FROM kpi_data k`

	kpiSummaryQuery = `
		SELECT
			COUNT(k.id),
			COALESCE(AVG(k.efficiency), 0),
			COALESCE(AVG(k.production_rate), 0),
			COALESCE(AVG(k.defects_ppm), 0),
			MAX(k.week_date)
		FROM kpi_data k`

	kpiDeleteQuery = `DELETE FROM kpi_data WHERE id = $1`
)

type PgKPIRepository struct{}

func NewKPIRepository() kpi.Repository {
	return &PgKPIRepository{}
}

func (g *PgKPIRepository) buildFilters(params *kpi.FindParams) ([]string, []interface{}) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)

	if !params.From.IsZero() {
		args = append(args, params.From)
		where = append(where, fmt.Sprintf("k.week_date >= $%d", len(args)))
	}
	if !params.To.IsZero() {
		args = append(args, params.To)
		where = append(where, fmt.Sprintf("k.week_date <= $%d", len(args)))
	}

	return where, args
}

func (g *PgKPIRepository) querySamples(ctx context.Context, query string, args ...interface{}) ([]kpi.Sample, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query kpi samples")
	}
	defer rows.Close()

	samples := make([]kpi.Sample, 0)
	for rows.Next() {
		var (
			id             uint
			weekDate       time.Time
			efficiency     float64
			productionRate float64
			defectsPPM     float64
			createdAt      time.Time
			updatedAt      time.Time
		)
		if err := rows.Scan(
			&id,
			&weekDate,
			&efficiency,
			&productionRate,
			&defectsPPM,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan kpi sample")
		}
		samples = append(samples, kpi.Hydrate(id, weekDate, efficiency, productionRate, defectsPPM, createdAt, updatedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read kpi samples")
	}
	return samples, nil
}

func (g *PgKPIRepository) GetPaginated(ctx context.Context, params *kpi.FindParams) ([]kpi.Sample, error) {
	if params == nil {
		params = &kpi.FindParams{}
	}

	where, args := g.buildFilters(params)

	sort := "ORDER BY k.week_date DESC"
	if params.Ascending {
		sort = "ORDER BY k.week_date ASC"
	}

	query := repo.Join(
		kpiFindQuery,
		repo.JoinWhere(where...),
		sort,
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	samples, err := g.querySamples(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paginated kpi samples")
	}
	return samples, nil
}

func (g *PgKPIRepository) Count(ctx context.Context, params *kpi.FindParams) (int64, error) {
	if params == nil {
		params = &kpi.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(params)
	query := repo.Join(kpiCountQuery, repo.JoinWhere(where...))

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count kpi samples")
	}
	return count, nil
}

func (g *PgKPIRepository) GetByID(ctx context.Context, id uint) (kpi.Sample, error) {
	samples, err := g.querySamples(ctx, kpiFindQuery+" WHERE k.id = $1", id)
	if err != nil {
		return kpi.Sample{}, errors.Wrap(err, fmt.Sprintf("failed to query kpi sample with id: %d", id))
	}
	if len(samples) == 0 {
		return kpi.Sample{}, fmt.Errorf("id: %d: %w", id, kpi.ErrNotFound)
	}
	return samples[0], nil
}

func (g *PgKPIRepository) GetByWeekDate(ctx context.Context, weekDate time.Time) (kpi.Sample, error) {
	samples, err := g.querySamples(ctx, kpiFindQuery+" WHERE k.week_date = $1", weekDate)
	if err != nil {
		return kpi.Sample{}, errors.Wrap(err, fmt.Sprintf("failed to query kpi sample for week: %s", weekDate.Format(time.DateOnly)))
	}
	if len(samples) == 0 {
		return kpi.Sample{}, fmt.Errorf("week_date: %s: %w", weekDate.Format(time.DateOnly), kpi.ErrNotFound)
	}
	return samples[0], nil
}

func (g *PgKPIRepository) Create(ctx context.Context, sample kpi.Sample) (kpi.Sample, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return kpi.Sample{}, errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{"week_date", "efficiency", "production_rate", "defects_ppm"}
	values := []interface{}{sample.WeekDate(), sample.Efficiency(), sample.ProductionRate(), sample.DefectsPPM()}

	var id uint
	q := repo.Insert("kpi_data", fields, "id")
	if err := tx.QueryRow(ctx, q, values...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return kpi.Sample{}, fmt.Errorf("week_date: %s: %w", sample.WeekDateString(), kpi.ErrWeekDateTaken)
		}
		return kpi.Sample{}, errors.Wrap(err, "failed to insert kpi sample")
	}

	return g.GetByID(ctx, id)
}

func (g *PgKPIRepository) Update(ctx context.Context, id uint, values kpi.UpdateValues) (kpi.Sample, error) {
	return g.update(ctx, "id", id, values)
}

func (g *PgKPIRepository) UpdateByWeekDate(ctx context.Context, weekDate time.Time, values kpi.UpdateValues) (kpi.Sample, error) {
	return g.update(ctx, "week_date", weekDate, values)
}

func (g *PgKPIRepository) update(ctx context.Context, keyColumn string, key interface{}, values kpi.UpdateValues) (kpi.Sample, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return kpi.Sample{}, errors.Wrap(err, "failed to get transaction")
	}

	fields := []string{"updated_at"}
	args := []interface{}{time.Now()}

	if values.Efficiency != nil {
		fields = append(fields, "efficiency")
		args = append(args, *values.Efficiency)
	}
	if values.ProductionRate != nil {
		fields = append(fields, "production_rate")
		args = append(args, *values.ProductionRate)
	}
	if values.DefectsPPM != nil {
		fields = append(fields, "defects_ppm")
		args = append(args, *values.DefectsPPM)
	}

	args = append(args, key)
	q := repo.Update("kpi_data", fields, fmt.Sprintf("%s = $%d", keyColumn, len(args))) + " RETURNING id"

	var updatedID uint
	if err := tx.QueryRow(ctx, q, args...).Scan(&updatedID); err != nil {
		if isNoRows(err) {
			return kpi.Sample{}, fmt.Errorf("%s: %v: %w", keyColumn, key, kpi.ErrNotFound)
		}
		return kpi.Sample{}, errors.Wrap(err, fmt.Sprintf("failed to update kpi sample by %s", keyColumn))
	}

	return g.GetByID(ctx, updatedID)
}

func (g *PgKPIRepository) Delete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, kpiDeleteQuery, id)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to delete kpi sample with id: %d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("id: %d: %w", id, kpi.ErrNotFound)
	}
	return nil
}

func (g *PgKPIRepository) Summary(ctx context.Context, from, to time.Time) (kpi.Summary, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return kpi.Summary{}, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(&kpi.FindParams{From: from, To: to})
	query := repo.Join(kpiSummaryQuery, repo.JoinWhere(where...))

	var (
		summary    kpi.Summary
		latestWeek *time.Time
	)
	if err := tx.QueryRow(ctx, query, args...).Scan(
		&summary.Samples,
		&summary.AvgEfficiency,
		&summary.AvgProductionRate,
		&summary.AvgDefectsPPM,
		&latestWeek,
	); err != nil {
		return kpi.Summary{}, errors.Wrap(err, "failed to summarize kpi samples")
	}
	if latestWeek != nil {
		summary.LatestWeek = *latestWeek
	}
	return summary, nil
}
