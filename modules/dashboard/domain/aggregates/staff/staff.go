package staff

import (
	"strings"
	"time"
)

// Status is the employment state of a member. Values are matched
// case-sensitively everywhere, including CSV ingestion.
type Status string

const (
	StatusActive     Status = "active"
	StatusOnVacation Status = "on_vacation"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusOnVacation:
		return true
	}
	return false
}

// Member is a staff roster entry. The (name, department) pair is the
// natural key, so the same name may appear once per department.
type Member struct {
	id         uint
	name       string
	position   string
	department string
	status     Status
	createdAt  time.Time
	updatedAt  time.Time
}

// New builds an unsaved member with whitespace-trimmed fields.
func New(name, position, department string, status Status) Member {
	return Member{
		name:       strings.TrimSpace(name),
		position:   strings.TrimSpace(position),
		department: strings.TrimSpace(department),
		status:     status,
	}
}

// Hydrate restores a member from storage without validation.
func Hydrate(
	id uint,
	name, position, department string,
	status Status,
	createdAt, updatedAt time.Time,
) Member {
	return Member{
		id:         id,
		name:       name,
		position:   position,
		department: department,
		status:     status,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (m Member) ID() uint {
	return m.id
}

func (m Member) Name() string {
	return m.name
}

func (m Member) Position() string {
	return m.position
}

func (m Member) Department() string {
	return m.department
}

func (m Member) Status() Status {
	return m.status
}

func (m Member) CreatedAt() time.Time {
	return m.createdAt
}

func (m Member) UpdatedAt() time.Time {
	return m.updatedAt
}

func (m Member) IsZero() bool {
	return m.id == 0 && m.name == "" && m.department == ""
}
