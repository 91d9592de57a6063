package job

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("job not found")
	ErrHasApplications = errors.New("job has applications and cannot be deleted")
)

type Status int

const (
	StatusDraft     Status = 0
	StatusPublished Status = 1
)

func (s Status) String() string {
	if s == StatusPublished {
		return "Published"
	}
	return "Draft"
}

type Level int

const (
	LevelEntry  Level = 1
	LevelMid    Level = 2
	LevelSenior Level = 3
)

var Levels = []Level{LevelEntry, LevelMid, LevelSenior}

func (l Level) String() string {
	switch l {
	case LevelEntry:
		return "Entry Level"
	case LevelMid:
		return "Mid Level"
	case LevelSenior:
		return "Senior Level"
	}
	return ""
}

func (l Level) Valid() bool {
	return l >= LevelEntry && l <= LevelSenior
}

type Type int

const (
	TypeFullTime Type = 1
	TypeContract Type = 2
	TypePartTime Type = 3
)

var Types = []Type{TypeFullTime, TypeContract, TypePartTime}

func (t Type) String() string {
	switch t {
	case TypeFullTime:
		return "Full Time"
	case TypeContract:
		return "Contract"
	case TypePartTime:
		return "Part Time"
	}
	return ""
}

func (t Type) Valid() bool {
	return t >= TypeFullTime && t <= TypePartTime
}

type Job struct {
	ID          int
	Title       string
	Slug        string
	Location    string
	Level       Level // zero when the employer did not set one
	Type        Type
	Status      Status
	Description string
	Summary     string
	SourceLink  sql.NullString
	Deadline    pq.NullTime
	DatePosted  time.Time

	CategoryID        int
	CategoryName      string
	CategorySlug      string
	EmployerID        int
	EmployerAccountID string
	CompanyName       string
	EmployerSlug      string
}

func (j Job) IsPublished() bool {
	return j.Status == StatusPublished
}

func (j Job) IsDraft() bool {
	return j.Status == StatusDraft
}

// JobRq is the employer submitted job form.
type JobRq struct {
	CategoryID  int    `form:"category" validate:"required,gt=0"`
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"required"`
	Summary     string `form:"summary" validate:"max=500"`
	Location    string `form:"location" validate:"max=200"`
	Deadline    string `form:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Type        int    `form:"job_type" validate:"oneof=1 2 3"`
	Level       int    `form:"level" validate:"oneof=0 1 2 3"`
	Status      int    `form:"status" validate:"oneof=0 1"`
}

func (rq JobRq) deadline() pq.NullTime {
	if rq.Deadline == "" {
		return pq.NullTime{}
	}
	t, err := time.Parse("2006-01-02", rq.Deadline)
	if err != nil {
		return pq.NullTime{}
	}
	return pq.NullTime{Time: t, Valid: true}
}

func (rq JobRq) level() sql.NullInt64 {
	if rq.Level == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(rq.Level), Valid: true}
}

// FromJob prefills the edit form with the stored job.
func FromJob(j Job) JobRq {
	rq := JobRq{
		CategoryID:  j.CategoryID,
		Title:       j.Title,
		Description: j.Description,
		Summary:     j.Summary,
		Location:    j.Location,
		Type:        int(j.Type),
		Level:       int(j.Level),
		Status:      int(j.Status),
	}
	if j.Deadline.Valid {
		rq.Deadline = j.Deadline.Time.Format("2006-01-02")
	}
	return rq
}
