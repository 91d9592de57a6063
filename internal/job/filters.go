package job

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter narrows published listings. Zero values do not filter.
type Filter struct {
	Type     Type
	Level    Level
	Location string
}

// ParseFilterFromQuery reads job_type, level and location, ignoring values
// that are not valid choices.
func ParseFilterFromQuery(q url.Values) Filter {
	var f Filter
	if t, err := strconv.Atoi(q.Get("job_type")); err == nil && Type(t).Valid() {
		f.Type = Type(t)
	}
	if l, err := strconv.Atoi(q.Get("level")); err == nil && Level(l).Valid() {
		f.Level = Level(l)
	}
	f.Location = strings.TrimSpace(q.Get("location"))
	return f
}

// QueryString encodes the filter for pager links.
func (f Filter) QueryString() string {
	q := url.Values{}
	if f.Type != 0 {
		q.Set("job_type", strconv.Itoa(int(f.Type)))
	}
	if f.Level != 0 {
		q.Set("level", strconv.Itoa(int(f.Level)))
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	return q.Encode()
}

func (f Filter) IsEmpty() bool {
	return f.Type == 0 && f.Level == 0 && f.Location == ""
}

// where renders the SQL predicate for published jobs matching the filter,
// optionally within a category, with placeholders starting at $1.
func (f Filter) where(categoryID int) (string, []interface{}) {
	clauses := []string{"j.status = $1"}
	args := []interface{}{StatusPublished}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if categoryID > 0 {
		add("j.category_id = ?", categoryID)
	}
	if f.Type != 0 {
		add("j.job_type = ?", f.Type)
	}
	if f.Level != 0 {
		add("j.level = ?", f.Level)
	}
	if f.Location != "" {
		add("lower(j.location) = lower(?)", f.Location)
	}
	return strings.Join(clauses, " AND "), args
}
