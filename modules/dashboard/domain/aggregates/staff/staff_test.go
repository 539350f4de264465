package staff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plantboard/plantboard/modules/dashboard/domain/aggregates/staff"
)

func TestStatus_IsValid(t *testing.T) {
	require.True(t, staff.StatusActive.IsValid())
	require.True(t, staff.StatusOnVacation.IsValid())
	require.False(t, staff.Status("Active").IsValid())
	require.False(t, staff.Status("retired").IsValid())
	require.False(t, staff.Status("").IsValid())
}

func TestCreateDTO_Ok(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		dto := &staff.CreateDTO{
			Name:       " John Smith ",
			Position:   "Engineer",
			Department: "Production",
			Status:     "active",
		}

		errs, ok := dto.Ok(context.Background())
		require.True(t, ok)
		require.Empty(t, errs)

		entity := dto.ToEntity()
		require.Equal(t, "John Smith", entity.Name())
		require.Equal(t, staff.StatusActive, entity.Status())
	})

	t.Run("status is case sensitive", func(t *testing.T) {
		dto := &staff.CreateDTO{
			Name:       "John Smith",
			Position:   "Engineer",
			Department: "Production",
			Status:     "Active",
		}

		errs, ok := dto.Ok(context.Background())
		require.False(t, ok)
		require.Equal(t, "status must be one of: active on_vacation", errs["Status"])
	})

	t.Run("missing fields", func(t *testing.T) {
		dto := &staff.CreateDTO{Status: "on_vacation"}

		errs, ok := dto.Ok(context.Background())
		require.False(t, ok)
		require.Equal(t, "name is required", errs["Name"])
		require.Equal(t, "position is required", errs["Position"])
		require.Equal(t, "department is required", errs["Department"])
	})
}

func TestUpdateDTO_Ok(t *testing.T) {
	t.Run("blank position rejected", func(t *testing.T) {
		blank := "   "
		dto := &staff.UpdateDTO{Position: &blank}

		errs, ok := dto.Ok(context.Background())
		require.False(t, ok)
		require.Equal(t, "position must not be empty", errs["Position"])
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		status := "sabbatical"
		dto := &staff.UpdateDTO{Status: &status}

		errs, ok := dto.Ok(context.Background())
		require.False(t, ok)
		require.Equal(t, "status must be one of: active on_vacation", errs["Status"])
	})

	t.Run("values trim position", func(t *testing.T) {
		position := " Senior Engineer "
		status := "on_vacation"
		dto := &staff.UpdateDTO{Position: &position, Status: &status}

		errs, ok := dto.Ok(context.Background())
		require.True(t, ok)
		require.Empty(t, errs)

		values := dto.ToValues()
		require.Equal(t, "Senior Engineer", *values.Position)
		require.Equal(t, staff.StatusOnVacation, *values.Status)
	})
}
