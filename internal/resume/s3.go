package resume

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sebez/jobboard/internal/config"
)

type objectClient interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// S3Store keeps resume bytes in an S3 compatible bucket and the metadata in
// postgres.
type S3Store struct {
	db     *sql.DB
	client objectClient
	bucket string
}

func NewS3Store(db *sql.DB, cfg config.Config) (*S3Store, error) {
	awsCfg := &aws.Config{
		Credentials: credentials.NewStaticCredentials(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		Region:      aws.String(cfg.S3Region),
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create s3 session")
	}
	return &S3Store{db: db, client: s3.New(sess), bucket: cfg.S3Bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, accountID, fileName string, data []byte) (File, error) {
	f, err := newFile(accountID, fileName, data)
	if err != nil {
		return File{}, err
	}
	key := fmt.Sprintf("resumes/%s/%s", accountID, f.ID)
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(f.MediaType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", fileName)),
		ACL:                aws.String(s3.ObjectCannedACLPrivate),
	})
	if err != nil {
		return File{}, errors.Wrap(err, "unable to upload resume")
	}
	f.StorageKey = sql.NullString{String: key, Valid: true}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO resume_file (id, account_id, file_name, media_type, storage_key, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.AccountID, f.FileName, f.MediaType, f.StorageKey, f.CreatedAt,
	)
	if err != nil {
		return File{}, err
	}
	return f, nil
}

func (s *S3Store) Open(ctx context.Context, id string) (File, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, selectFile, id))
	if err != nil {
		return File{}, err
	}
	// rows written before switching to s3 still carry their bytes
	if !f.StorageKey.Valid {
		return f, nil
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(f.StorageKey.String),
	})
	if err != nil {
		return File{}, errors.Wrap(err, "unable to download resume")
	}
	defer out.Body.Close()
	f.Bytes, err = io.ReadAll(out.Body)
	return f, err
}
