// Package application tracks job seeker submissions and the employer's
// review pipeline for them.
//
// Every review action is a toggle around Pending:
//
//	Pending ──short list──► ShortListed
//	Pending ──contact─────► Contacted
//	Pending ──archive─────► Archived
//	any other status ──any action──► Pending
//
// A non pending application never moves directly between ShortListed,
// Contacted and Archived.
package application

import "fmt"

type Status int

const (
	StatusPending     Status = 0
	StatusShortListed Status = 1
	StatusContacted   Status = 2
	StatusArchived    Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusShortListed:
		return "Short Listed"
	case StatusContacted:
		return "Contacted"
	case StatusArchived:
		return "Archived"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusArchived
}

type Action int

const (
	ActionShortList Action = iota + 1
	ActionContact
	ActionArchive
)

func (a Action) Target() Status {
	switch a {
	case ActionShortList:
		return StatusShortListed
	case ActionContact:
		return StatusContacted
	case ActionArchive:
		return StatusArchived
	}
	return StatusPending
}

func (a Action) notice() string {
	switch a {
	case ActionShortList:
		return "Application short listed"
	case ActionContact:
		return "Application moved to contacted list"
	case ActionArchive:
		return "Application archived"
	}
	return ""
}

// Toggle applies action to current and returns the resulting status together
// with the notice to show the employer. The notice is empty when the
// application went back to Pending.
func Toggle(current Status, action Action) (Status, string) {
	if current == StatusPending {
		return action.Target(), action.notice()
	}
	return StatusPending, ""
}
