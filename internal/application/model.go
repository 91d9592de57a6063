package application

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("application not found")
	ErrNotJobOwner    = errors.New("application belongs to another employer's job")
	ErrAlreadyApplied = errors.New("job seeker already applied for this job")
)

type Application struct {
	ID          int
	JobID       int
	JobSeekerID string
	ResumeID    string
	Status      Status
	CreatedAt   time.Time

	JobTitle        string
	JobSlug         string
	CompanyName     string
	SeekerUID       string
	SeekerFirstName string
	SeekerLastName  string
	SeekerEmail     string
	ResumeFileName  string
}

func (a Application) SeekerName() string {
	return a.SeekerFirstName + " " + a.SeekerLastName
}

// Groups splits a job's applications the way the applicant manager shows them.
// Active holds everything not archived.
type Groups struct {
	Active      []*Application
	ShortListed []*Application
	Contacted   []*Application
	Archived    []*Application
}

func Group(apps []*Application) Groups {
	g := Groups{
		Active:      []*Application{},
		ShortListed: []*Application{},
		Contacted:   []*Application{},
		Archived:    []*Application{},
	}
	for _, a := range apps {
		switch a.Status {
		case StatusShortListed:
			g.ShortListed = append(g.ShortListed, a)
		case StatusContacted:
			g.Contacted = append(g.Contacted, a)
		case StatusArchived:
			g.Archived = append(g.Archived, a)
		}
		if a.Status < StatusArchived {
			g.Active = append(g.Active, a)
		}
	}
	return g
}

// SplitArchived separates a job seeker's proposals into active and archived.
func SplitArchived(apps []*Application) (active, archived []*Application) {
	active, archived = []*Application{}, []*Application{}
	for _, a := range apps {
		if a.Status == StatusArchived {
			archived = append(archived, a)
			continue
		}
		active = append(active, a)
	}
	return active, archived
}

// ApplyRq carries the name of the uploaded resume so the form package can
// check it like any other field.
type ApplyRq struct {
	ResumeFileName string `form:"resume" validate:"required,resume_ext"`
}
