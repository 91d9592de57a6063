package report

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sebez/jobboard/internal/database"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// Create records a report. Each job seeker can report a job once, a second
// attempt returns ErrAlreadyReported.
func (r *Repository) Create(ctx context.Context, rep Report) (Report, error) {
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO job_report (job_id, job_seeker_id, reason, detail, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		rep.JobID, rep.JobSeekerID, rep.Reason, rep.Detail,
	).Scan(&rep.ID, &rep.CreatedAt)
	if database.IsUniqueViolation(err) {
		return Report{}, ErrAlreadyReported
	}
	if err != nil {
		return Report{}, errors.Wrap(err, "unable to insert job report")
	}
	return rep, nil
}

func (r *Repository) HasReported(ctx context.Context, jobID int, jobSeekerID string) (bool, error) {
	var reported bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM job_report WHERE job_id = $1 AND job_seeker_id = $2)`,
		jobID, jobSeekerID,
	).Scan(&reported)
	return reported, err
}

// ReportedJobIDs returns the set of job ids the job seeker reported.
func (r *Repository) ReportedJobIDs(ctx context.Context, jobSeekerID string) (map[int]bool, error) {
	ids := make(map[int]bool)
	rows, err := r.db.QueryContext(ctx, `SELECT job_id FROM job_report WHERE job_seeker_id = $1`, jobSeekerID)
	if err != nil {
		return ids, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return ids, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
