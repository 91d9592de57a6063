package bookmark

import (
	"time"
)

type Bookmark struct {
	AccountID string
	JobID     int
	SavedAt   time.Time

	JobSlug     string
	JobTitle    string
	JobLocation string
	CompanyName string
	JobPostedAt time.Time
}
