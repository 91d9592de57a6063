package job

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sebez/jobboard/internal/database"
	"github.com/sebez/jobboard/internal/identifier"
	"github.com/sebez/jobboard/internal/paginator"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

const (
	selectJobs = `SELECT j.id, j.title, j.slug, j.location, j.level, j.job_type, j.status, j.description, j.summary,
		j.source_link, j.deadline, j.date_posted, j.category_id, c.name, c.slug, j.employer_id, e.account_id,
		e.company_name, e.slug
	FROM job j
	JOIN job_category c ON c.id = j.category_id
	JOIN employer_profile e ON e.id = j.employer_id`

	searchVector = `to_tsvector('english', j.title || ' ' || j.description || ' ' || j.location)`
)

// slugAttempts bounds how often Create picks a fresh slug after losing an
// insert race on the unique index.
const slugAttempts = 3

// Create stores a new job for the employer. The slug is derived from the
// title here and never touched again.
func (r *Repository) Create(ctx context.Context, employerID int, rq JobRq) (Job, error) {
	var id int
	for attempt := 1; ; attempt++ {
		slug, err := identifier.Slug(rq.Title, func(candidate string) (bool, error) {
			return r.slugExists(ctx, candidate)
		})
		if err != nil {
			return Job{}, errors.Wrap(err, "unable to generate job slug")
		}
		err = r.db.QueryRowContext(
			ctx,
			`INSERT INTO job (title, slug, location, level, job_type, status, description, summary, deadline, date_posted, category_id, employer_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), $10, $11)
			RETURNING id`,
			rq.Title,
			slug,
			rq.Location,
			rq.level(),
			rq.Type,
			rq.Status,
			rq.Description,
			rq.Summary,
			rq.deadline(),
			rq.CategoryID,
			employerID,
		).Scan(&id)
		if database.IsUniqueViolation(err) && attempt < slugAttempts {
			continue
		}
		if err != nil {
			return Job{}, errors.Wrap(err, "unable to insert job")
		}
		break
	}
	return r.JobByID(ctx, id)
}

// Update saves the editable fields. date_posted is refreshed on every save.
func (r *Repository) Update(ctx context.Context, id int, rq JobRq) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE job SET title = $1, location = $2, level = $3, job_type = $4, status = $5, description = $6,
			summary = $7, deadline = $8, category_id = $9, date_posted = NOW()
		WHERE id = $10`,
		rq.Title,
		rq.Location,
		rq.level(),
		rq.Type,
		rq.Status,
		rq.Description,
		rq.Summary,
		rq.deadline(),
		rq.CategoryID,
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the job together with its bookmarks and reports. Jobs that
// received applications are kept and ErrHasApplications is returned.
func (r *Repository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM job WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		return ErrHasApplications
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) JobBySlug(ctx context.Context, slug string) (Job, error) {
	return r.one(ctx, selectJobs+` WHERE j.slug = $1`, slug)
}

func (r *Repository) JobByID(ctx context.Context, id int) (Job, error) {
	return r.one(ctx, selectJobs+` WHERE j.id = $1`, id)
}

func (r *Repository) LatestPublished(ctx context.Context, limit int) ([]*Job, error) {
	return r.many(ctx, selectJobs+` WHERE j.status = $1 ORDER BY j.date_posted DESC LIMIT $2`, StatusPublished, limit)
}

// PublishedJobs applies the structured filter to published jobs, within a
// category when categoryID is set.
func (r *Repository) PublishedJobs(ctx context.Context, f Filter, categoryID int, rawPage string, perPage int) ([]*Job, paginator.Page, error) {
	where, args := f.where(categoryID)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM job j WHERE `+where, args...).Scan(&total); err != nil {
		return []*Job{}, paginator.Page{}, err
	}
	page := paginator.Resolve(rawPage, total, perPage)
	limitAt := strconv.Itoa(len(args) + 1)
	offsetAt := strconv.Itoa(len(args) + 2)
	args = append(args, page.Limit(), page.Offset())
	jobs, err := r.many(ctx, selectJobs+` WHERE `+where+` ORDER BY j.date_posted DESC LIMIT $`+limitAt+` OFFSET $`+offsetAt, args...)
	return jobs, page, err
}

// Search ranks published jobs against the query and location terms combined.
func (r *Repository) Search(ctx context.Context, query, location, rawPage string, perPage int) ([]*Job, paginator.Page, error) {
	terms := strings.TrimSpace(strings.TrimSpace(query) + " " + strings.TrimSpace(location))
	if terms == "" {
		return []*Job{}, paginator.Resolve(rawPage, 0, perPage), nil
	}
	var total int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT count(*) FROM job j WHERE j.status = $1 AND `+searchVector+` @@ plainto_tsquery('english', $2)`,
		StatusPublished, terms,
	).Scan(&total)
	if err != nil {
		return []*Job{}, paginator.Page{}, err
	}
	page := paginator.Resolve(rawPage, total, perPage)
	jobs, err := r.many(
		ctx,
		selectJobs+` WHERE j.status = $1 AND `+searchVector+` @@ plainto_tsquery('english', $2)
		ORDER BY ts_rank(`+searchVector+`, plainto_tsquery('english', $2)) DESC, j.date_posted DESC
		LIMIT $3 OFFSET $4`,
		StatusPublished, terms, page.Limit(), page.Offset(),
	)
	return jobs, page, err
}

// EmployerJobs lists jobs the employer posted on the site with the given
// status. Jobs imported from an external source link are left out.
func (r *Repository) EmployerJobs(ctx context.Context, employerID int, status Status, rawPage string, perPage int) ([]*Job, paginator.Page, error) {
	var total int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT count(*) FROM job WHERE employer_id = $1 AND status = $2 AND source_link IS NULL`,
		employerID, status,
	).Scan(&total)
	if err != nil {
		return []*Job{}, paginator.Page{}, err
	}
	page := paginator.Resolve(rawPage, total, perPage)
	jobs, err := r.many(
		ctx,
		selectJobs+` WHERE j.employer_id = $1 AND j.status = $2 AND j.source_link IS NULL
		ORDER BY j.date_posted DESC
		LIMIT $3 OFFSET $4`,
		employerID, status, page.Limit(), page.Offset(),
	)
	return jobs, page, err
}

func (r *Repository) slugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM job WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *Repository) one(ctx context.Context, query string, args ...interface{}) (Job, error) {
	jobs, err := r.many(ctx, query, args...)
	if err != nil {
		return Job{}, err
	}
	if len(jobs) == 0 {
		return Job{}, ErrNotFound
	}
	return *jobs[0], nil
}

func (r *Repository) many(ctx context.Context, query string, args ...interface{}) ([]*Job, error) {
	jobs := []*Job{}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		j := &Job{}
		var level sql.NullInt64
		err := rows.Scan(
			&j.ID,
			&j.Title,
			&j.Slug,
			&j.Location,
			&level,
			&j.Type,
			&j.Status,
			&j.Description,
			&j.Summary,
			&j.SourceLink,
			&j.Deadline,
			&j.DatePosted,
			&j.CategoryID,
			&j.CategoryName,
			&j.CategorySlug,
			&j.EmployerID,
			&j.EmployerAccountID,
			&j.CompanyName,
			&j.EmployerSlug,
		)
		if err != nil {
			return jobs, err
		}
		if level.Valid {
			j.Level = Level(level.Int64)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
