package category

import (
	"context"
	"database/sql"

	"github.com/sebez/jobboard/internal/identifier"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) Create(ctx context.Context, name string) (Category, error) {
	slug, err := identifier.Slug(name, func(candidate string) (bool, error) {
		return r.slugExists(ctx, candidate)
	})
	if err != nil {
		return Category{}, err
	}
	c := Category{Name: name, Slug: slug}
	err = r.db.QueryRowContext(
		ctx,
		`INSERT INTO job_category (name, slug) VALUES ($1, $2) RETURNING id`,
		name, slug,
	).Scan(&c.ID)
	return c, err
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, slug FROM job_category WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r *Repository) GetByID(ctx context.Context, id int) (Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, slug FROM job_category WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

// Categories lists categories with their published job count, limit 0 lists all.
func (r *Repository) Categories(ctx context.Context, limit int) ([]*Category, error) {
	categories := []*Category{}
	query := `SELECT c.id, c.name, c.slug, count(j.id)
		FROM job_category c
		LEFT JOIN job j ON j.category_id = c.id AND j.status = 1
		GROUP BY c.id, c.name, c.slug
		ORDER BY c.name ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return categories, err
	}
	defer rows.Close()
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.JobCount); err != nil {
			return categories, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) slugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM job_category WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}
