package account

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/sebez/jobboard/internal/database"
	"github.com/sebez/jobboard/internal/identifier"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

const selectAccounts = `SELECT id, uid, email, password_hash, first_name, last_name, account_type, is_active, created_at FROM account`

func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores an inactive account and its role profile in one transaction.
func (r *Repository) Create(ctx context.Context, rq SignupRq) (Account, error) {
	hash, err := HashPassword(rq.Password1)
	if err != nil {
		return Account{}, errors.Wrap(err, "unable to hash password")
	}
	id, err := ksuid.NewRandom()
	if err != nil {
		return Account{}, errors.Wrap(err, "unable to generate account id")
	}
	acc := Account{
		ID:           id.String(),
		Email:        NormaliseEmail(rq.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(rq.FirstName),
		LastName:     strings.TrimSpace(rq.LastName),
		Type:         Type(rq.AccountType),
	}
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var taken bool
		err := tx.QueryRowContext(
			ctx,
			`SELECT EXISTS(SELECT 1 FROM account WHERE email = $1 AND account_type = $2)`,
			acc.Email, acc.Type,
		).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		acc.UID, err = identifier.UID(func(candidate string) (bool, error) {
			return exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM account WHERE uid = $1)`, candidate)
		})
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(
			ctx,
			`INSERT INTO account (id, uid, email, password_hash, first_name, last_name, account_type, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW())
			RETURNING created_at`,
			acc.ID, acc.UID, acc.Email, acc.PasswordHash, acc.FirstName, acc.LastName, acc.Type,
		).Scan(&acc.CreatedAt)
		if database.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		if err != nil {
			return err
		}
		return createProfile(ctx, tx, acc, strings.TrimSpace(rq.CompanyName))
	})
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

func createProfile(ctx context.Context, tx *sql.Tx, acc Account, companyName string) error {
	switch acc.Type {
	case TypeJobSeeker:
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO job_seeker_profile (account_id, visibility) VALUES ($1, $2)`,
			acc.ID, VisibilityPrivate,
		)
		return err
	case TypeEmployer:
		if companyName == "" {
			companyName = acc.FullName()
		}
		slug, err := identifier.Slug(companyName, func(candidate string) (bool, error) {
			return exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM employer_profile WHERE slug = $1)`, candidate)
		})
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO employer_profile (account_id, company_name, about, slug) VALUES ($1, $2, '', $3)`,
			acc.ID, companyName, slug,
		)
		return err
	}
	return errors.Errorf("unknown account type %d", acc.Type)
}

func exists(ctx context.Context, tx *sql.Tx, query, arg string) (bool, error) {
	var found bool
	err := tx.QueryRowContext(ctx, query, arg).Scan(&found)
	return found, err
}

func (r *Repository) AccountByID(ctx context.Context, id string) (Account, error) {
	return r.one(ctx, selectAccounts+` WHERE id = $1`, id)
}

// AccountsByEmail returns every account registered with the email, one per
// account type.
func (r *Repository) AccountsByEmail(ctx context.Context, email string) ([]*Account, error) {
	accounts := []*Account{}
	rows, err := r.db.QueryContext(ctx, selectAccounts+` WHERE email = $1 ORDER BY account_type ASC`, NormaliseEmail(email))
	if err != nil {
		return accounts, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return accounts, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

// Authenticate returns the first active account with the email whose
// password matches.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (Account, error) {
	accounts, err := r.AccountsByEmail(ctx, email)
	if err != nil {
		return Account{}, err
	}
	for _, a := range accounts {
		if a.IsActive && CheckPassword(a.PasswordHash, password) {
			return *a, nil
		}
	}
	return Account{}, ErrInvalidCredentials
}

// Activate marks a pending account active. Accounts already active return
// ErrAlreadyActive so a confirmation link works once.
func (r *Repository) Activate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE account SET is_active = TRUE WHERE id = $1 AND is_active = FALSE`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyActive
	}
	return nil
}

func (r *Repository) JobSeekerByAccountID(ctx context.Context, accountID string) (JobSeeker, error) {
	var js JobSeeker
	err := r.db.QueryRowContext(
		ctx,
		`SELECT a.id, a.uid, a.email, a.password_hash, a.first_name, a.last_name, a.account_type, a.is_active, a.created_at,
			p.resume_id, f.file_name, p.visibility
		FROM job_seeker_profile p
		JOIN account a ON a.id = p.account_id
		LEFT JOIN resume_file f ON f.id = p.resume_id
		WHERE p.account_id = $1`,
		accountID,
	).Scan(
		&js.ID,
		&js.UID,
		&js.Email,
		&js.PasswordHash,
		&js.FirstName,
		&js.LastName,
		&js.Type,
		&js.IsActive,
		&js.CreatedAt,
		&js.ResumeID,
		&js.ResumeFileName,
		&js.Visibility,
	)
	if err == sql.ErrNoRows {
		return JobSeeker{}, ErrNotFound
	}
	return js, err
}

// UpdateJobSeeker saves the profile form. The stored resume is replaced only
// when resumeID is not empty.
func (r *Repository) UpdateJobSeeker(ctx context.Context, accountID string, rq ProfileRq, resumeID string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`UPDATE account SET first_name = $1, last_name = $2 WHERE id = $3`,
			strings.TrimSpace(rq.FirstName), strings.TrimSpace(rq.LastName), accountID,
		)
		if err != nil {
			return err
		}
		resume := sql.NullString{String: resumeID, Valid: resumeID != ""}
		_, err = tx.ExecContext(
			ctx,
			`UPDATE job_seeker_profile SET visibility = $1, resume_id = COALESCE($2, resume_id) WHERE account_id = $3`,
			rq.Visibility, resume, accountID,
		)
		return err
	})
}

func (r *Repository) EmployerByAccountID(ctx context.Context, accountID string) (Employer, error) {
	var e Employer
	err := r.db.QueryRowContext(
		ctx,
		`SELECT id, account_id, company_name, about, slug FROM employer_profile WHERE account_id = $1`,
		accountID,
	).Scan(&e.ID, &e.AccountID, &e.CompanyName, &e.About, &e.Slug)
	if err == sql.ErrNoRows {
		return Employer{}, ErrNotFound
	}
	return e, err
}

func (r *Repository) one(ctx context.Context, query string, args ...interface{}) (Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Account{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Account{}, err
		}
		return Account{}, ErrNotFound
	}
	return scanAccount(rows)
}

func scanAccount(rows *sql.Rows) (Account, error) {
	var a Account
	err := rows.Scan(
		&a.ID,
		&a.UID,
		&a.Email,
		&a.PasswordHash,
		&a.FirstName,
		&a.LastName,
		&a.Type,
		&a.IsActive,
		&a.CreatedAt,
	)
	return a, err
}
