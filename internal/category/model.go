package category

import "errors"

var ErrNotFound = errors.New("category not found")

type Category struct {
	ID       int
	Name     string
	Slug     string
	JobCount int
}
