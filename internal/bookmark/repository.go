package bookmark

import (
	"context"
	"database/sql"

	"github.com/sebez/jobboard/internal/database"
	"github.com/sebez/jobboard/internal/paginator"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// Toggle removes the bookmark when present and creates it otherwise,
// returning whether the job is bookmarked afterwards. A concurrent toggle that
// already created the row counts as bookmarked.
func (r *Repository) Toggle(ctx context.Context, accountID string, jobID int) (bool, error) {
	var bookmarked bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM bookmark WHERE account_id = $1 AND job_id = $2`, accountID, jobID)
		if err != nil {
			return err
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if removed > 0 {
			bookmarked = false
			return nil
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO bookmark (account_id, job_id, saved_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (account_id, job_id) DO NOTHING`,
			accountID, jobID,
		)
		if err != nil && !database.IsUniqueViolation(err) {
			return err
		}
		bookmarked = true
		return nil
	})
	return bookmarked, err
}

func (r *Repository) IsBookmarked(ctx context.Context, accountID string, jobID int) (bool, error) {
	var bookmarked bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM bookmark WHERE account_id = $1 AND job_id = $2)`,
		accountID, jobID,
	).Scan(&bookmarked)
	return bookmarked, err
}

// BookmarkedJobIDs returns the set of job ids the account saved, used to mark
// listings.
func (r *Repository) BookmarkedJobIDs(ctx context.Context, accountID string) (map[int]bool, error) {
	ids := make(map[int]bool)
	rows, err := r.db.QueryContext(ctx, `SELECT job_id FROM bookmark WHERE account_id = $1`, accountID)
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

// BookmarksForAccount lists the saved jobs that are still published, newest
// bookmark first.
func (r *Repository) BookmarksForAccount(ctx context.Context, accountID, rawPage string, perPage int) ([]*Bookmark, paginator.Page, error) {
	bookmarks := []*Bookmark{}
	var total int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT count(*) FROM bookmark b JOIN job j ON j.id = b.job_id WHERE b.account_id = $1 AND j.status = 1`,
		accountID,
	).Scan(&total)
	if err != nil {
		return bookmarks, paginator.Page{}, err
	}
	page := paginator.Resolve(rawPage, total, perPage)
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT b.account_id, b.job_id, b.saved_at, j.slug, j.title, j.location, e.company_name, j.date_posted
		FROM bookmark b
		JOIN job j ON j.id = b.job_id
		JOIN employer_profile e ON e.id = j.employer_id
		WHERE b.account_id = $1 AND j.status = 1
		ORDER BY b.saved_at DESC
		LIMIT $2 OFFSET $3`,
		accountID, page.Limit(), page.Offset(),
	)
	if err != nil {
		return bookmarks, page, err
	}
	defer rows.Close()
	for rows.Next() {
		b := &Bookmark{}
		err := rows.Scan(
			&b.AccountID,
			&b.JobID,
			&b.SavedAt,
			&b.JobSlug,
			&b.JobTitle,
			&b.JobLocation,
			&b.CompanyName,
			&b.JobPostedAt,
		)
		if err != nil {
			return bookmarks, page, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, page, rows.Err()
}
