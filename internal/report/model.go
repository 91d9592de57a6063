package report

import (
	"errors"
	"time"
)

var ErrAlreadyReported = errors.New("job already reported by this job seeker")

type Reason int

const (
	ReasonOffensive Reason = iota + 1
	ReasonFake
	ReasonVague
	ReasonOther
)

var Reasons = []Reason{ReasonOffensive, ReasonFake, ReasonVague, ReasonOther}

func (r Reason) String() string {
	switch r {
	case ReasonOffensive:
		return "It is offensive, discriminatory"
	case ReasonFake:
		return "It seems like a fake job"
	case ReasonVague:
		return "Vague description"
	case ReasonOther:
		return "Other"
	}
	return ""
}

func (r Reason) Valid() bool {
	return r >= ReasonOffensive && r <= ReasonOther
}

type Report struct {
	ID          int
	JobID       int
	JobSeekerID string
	Reason      Reason
	Detail      string
	CreatedAt   time.Time
}

type ReportRq struct {
	Reason int    `form:"reason" validate:"required,oneof=1 2 3 4"`
	Detail string `form:"detail" validate:"max=1000"`
}
