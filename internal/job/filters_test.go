package job

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilterFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Filter
	}{
		{"empty", "", Filter{}},
		{"all set", "job_type=2&level=3&location=+Addis+Ababa+", Filter{Type: TypeContract, Level: LevelSenior, Location: "Addis Ababa"}},
		{"invalid choices ignored", "job_type=9&level=abc&location=", Filter{}},
		{"zero ignored", "job_type=0&level=0", Filter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParseFilterFromQuery(q))
		})
	}
}

func TestFilterWhereAlwaysRequiresPublished(t *testing.T) {
	where, args := Filter{}.where(0)
	assert.Equal(t, "j.status = $1", where)
	assert.Equal(t, []interface{}{StatusPublished}, args)

	where, args = Filter{Type: TypePartTime, Location: "Remote"}.where(4)
	assert.Equal(t, "j.status = $1 AND j.category_id = $2 AND j.job_type = $3 AND lower(j.location) = lower($4)", where)
	assert.Equal(t, []interface{}{StatusPublished, 4, TypePartTime, "Remote"}, args)
}

func TestFilterQueryString(t *testing.T) {
	assert.Equal(t, "", Filter{}.QueryString())
	assert.Equal(t, "job_type=1&level=2&location=Remote", Filter{Type: TypeFullTime, Level: LevelMid, Location: "Remote"}.QueryString())
}
