package application

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

const selectApplications = `SELECT a.id, a.job_id, a.job_seeker_id, a.resume_id, a.status, a.created_at,
		j.title, j.slug, e.company_name, s.uid, s.first_name, s.last_name, s.email, r.file_name
	FROM job_application a
	JOIN job j ON j.id = a.job_id
	JOIN employer_profile e ON e.id = j.employer_id
	JOIN account s ON s.id = a.job_seeker_id
	JOIN resume_file r ON r.id = a.resume_id`

func (r *Repository) Apply(ctx context.Context, jobID int, jobSeekerID, resumeID string) (Application, error) {
	a := Application{
		JobID:       jobID,
		JobSeekerID: jobSeekerID,
		ResumeID:    resumeID,
		Status:      StatusPending,
	}
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO job_application (job_id, job_seeker_id, resume_id, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`,
		jobID, jobSeekerID, resumeID, StatusPending,
	).Scan(&a.ID, &a.CreatedAt)
	if database.IsUniqueViolation(err) {
		return Application{}, ErrAlreadyApplied
	}
	if err != nil {
		return Application{}, errors.Wrap(err, "unable to insert job application")
	}
	return a, nil
}

func (r *Repository) HasApplied(ctx context.Context, jobID int, jobSeekerID string) (bool, error) {
	var applied bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM job_application WHERE job_id = $1 AND job_seeker_id = $2)`,
		jobID, jobSeekerID,
	).Scan(&applied)
	return applied, err
}

// Toggle applies action to the application inside a transaction, locking the
// row so concurrent reviews of the same application serialise.
func (r *Repository) Toggle(ctx context.Context, id, employerID int, action Action) (Application, string, error) {
	var (
		a      Application
		notice string
	)
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var ownerID int
		row := tx.QueryRowContext(
			ctx,
			`SELECT a.id, a.job_id, a.status, j.employer_id
			FROM job_application a
			JOIN job j ON j.id = a.job_id
			WHERE a.id = $1
			FOR UPDATE OF a`,
			id,
		)
		if err := row.Scan(&a.ID, &a.JobID, &a.Status, &ownerID); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
		if ownerID != employerID {
			return ErrNotJobOwner
		}
		a.Status, notice = Toggle(a.Status, action)
		_, err := tx.ExecContext(ctx, `UPDATE job_application SET status = $1 WHERE id = $2`, a.Status, a.ID)
		return err
	})
	if err != nil {
		return Application{}, "", err
	}
	return a, notice, nil
}

func (r *Repository) ApplicationsForJob(ctx context.Context, jobID int) ([]*Application, error) {
	return r.query(ctx, selectApplications+` WHERE a.job_id = $1 ORDER BY a.created_at DESC`, jobID)
}

func (r *Repository) ApplicationsForJobSeeker(ctx context.Context, jobSeekerID string) ([]*Application, error) {
	return r.query(ctx, selectApplications+` WHERE a.job_seeker_id = $1 ORDER BY a.created_at DESC`, jobSeekerID)
}

func (r *Repository) ApplicationForJobAndSeekerUID(ctx context.Context, jobID int, uid string) (Application, error) {
	apps, err := r.query(ctx, selectApplications+` WHERE a.job_id = $1 AND s.uid = $2`, jobID, uid)
	if err != nil {
		return Application{}, err
	}
	if len(apps) == 0 {
		return Application{}, ErrNotFound
	}
	return *apps[0], nil
}

// EmployerReceivedResume reports whether the resume was attached to an
// application for one of the employer's jobs.
func (r *Repository) EmployerReceivedResume(ctx context.Context, employerID int, resumeID string) (bool, error) {
	var received bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(
			SELECT 1 FROM job_application a
			JOIN job j ON j.id = a.job_id
			WHERE j.employer_id = $1 AND a.resume_id = $2)`,
		employerID, resumeID,
	).Scan(&received)
	return received, err
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]*Application, error) {
	apps := []*Application{}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return apps, err
	}
	defer rows.Close()
	for rows.Next() {
		a := &Application{}
		err := rows.Scan(
			&a.ID,
			&a.JobID,
			&a.JobSeekerID,
			&a.ResumeID,
			&a.Status,
			&a.CreatedAt,
			&a.JobTitle,
			&a.JobSlug,
			&a.CompanyName,
			&a.SeekerUID,
			&a.SeekerFirstName,
			&a.SeekerLastName,
			&a.SeekerEmail,
			&a.ResumeFileName,
		)
		if err != nil {
			return apps, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
