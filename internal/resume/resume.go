package resume

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

// MaxSize is the largest resume accepted, in bytes.
const MaxSize = 5 << 20

var AllowedExtensions = []string{"pdf", "doc", "docx", "odt", "rtf"}

var (
	ErrNotFound          = errors.New("resume not found")
	ErrTooLarge          = errors.New("resume is larger than 5MB")
	ErrExtensionNotValid = errors.New("resume extension is not allowed")
	ErrMissing           = errors.New("resume is required")
)

type File struct {
	ID         string
	AccountID  string
	FileName   string
	MediaType  string
	Bytes      []byte
	StorageKey sql.NullString
	CreatedAt  time.Time
}

// Store persists uploaded resumes.
type Store interface {
	Save(ctx context.Context, accountID, fileName string, data []byte) (File, error)
	Open(ctx context.Context, id string) (File, error)
}

// AllowedFileName reports whether the file name carries an allowed extension.
func AllowedFileName(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ReadUpload reads the resume posted in field. It returns ErrMissing when no
// file was sent.
func ReadUpload(r *http.Request, field string) (string, []byte, error) {
	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return "", nil, ErrMissing
	}
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	return readFile(f, header)
}

func readFile(f multipart.File, header *multipart.FileHeader) (string, []byte, error) {
	name := filepath.Base(header.Filename)
	if !AllowedFileName(name) {
		return name, nil, ErrExtensionNotValid
	}
	if header.Size > MaxSize {
		return name, nil, ErrTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return name, nil, err
	}
	if len(data) > MaxSize {
		return name, nil, ErrTooLarge
	}
	return name, data, nil
}

func newFile(accountID, fileName string, data []byte) (File, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return File{}, err
	}
	return File{
		ID:        id.String(),
		AccountID: accountID,
		FileName:  fileName,
		MediaType: mediaType(fileName, data),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func mediaType(fileName string, data []byte) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".odt":
		return "application/vnd.oasis.opendocument.text"
	case ".rtf":
		return "application/rtf"
	}
	return http.DetectContentType(data)
}

const selectFile = `SELECT id, account_id, file_name, media_type, bytes, storage_key, created_at FROM resume_file WHERE id = $1`

func scanFile(row *sql.Row) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.AccountID, &f.FileName, &f.MediaType, &f.Bytes, &f.StorageKey, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return File{}, ErrNotFound
	}
	return f, err
}

// DBStore keeps resume bytes in postgres.
type DBStore struct {
	db *sql.DB
}

func NewDBStore(db *sql.DB) *DBStore {
	return &DBStore{db}
}

func (s *DBStore) Save(ctx context.Context, accountID, fileName string, data []byte) (File, error) {
	f, err := newFile(accountID, fileName, data)
	if err != nil {
		return File{}, err
	}
	f.Bytes = data
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO resume_file (id, account_id, file_name, media_type, bytes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.AccountID, f.FileName, f.MediaType, f.Bytes, f.CreatedAt,
	)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (s *DBStore) Open(ctx context.Context, id string) (File, error) {
	return scanFile(s.db.QueryRowContext(ctx, selectFile, id))
}
