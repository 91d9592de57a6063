package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

const (
	ResumeStorageDB = "db"
	ResumeStorageS3 = "s3"
)

type Config struct {
	Port              string
	DatabaseUser      string
	DatabasePassword  string
	DatabaseHost      string
	DatabasePort      string
	DatabaseName      string
	DatabaseSSLMode   string
	EmailAPIKey       string
	SupportEmail      string // displayed on the site for support queries
	NoReplyEmail      string // used for transactional emails
	SessionKey        []byte
	JwtSigningKey     []byte
	Env               string // either prod or dev, will disable https and few other bits
	JobsPerPage       int    // configures how many jobs are shown per page result
	SiteName          string
	SiteHost          string
	URLProtocol       string
	SentryDSN         string
	AuthRatePerMinute int    // login/signup attempts allowed per client per minute
	ResumeStorage     string // either db or s3
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	supportEmail := os.Getenv("SUPPORT_EMAIL")
	if supportEmail == "" {
		return Config{}, fmt.Errorf("SUPPORT_EMAIL cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	env := os.Getenv("ENV")
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		return Config{}, fmt.Errorf("SITE_NAME cannot be empty")
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	urlProtocol := "https"
	if env == "dev" {
		urlProtocol = "http"
	}
	authRatePerMinute := 10
	if authRateStr := os.Getenv("AUTH_RATE_PER_MINUTE"); authRateStr != "" {
		authRatePerMinute, err = strconv.Atoi(authRateStr)
		if err != nil {
			return Config{}, errors.Wrap(err, "unable to convert auth rate per minute to int")
		}
		if authRatePerMinute < 1 {
			return Config{}, fmt.Errorf("AUTH_RATE_PER_MINUTE must be positive")
		}
	}

	cfg := Config{
		Port:              port,
		DatabaseUser:      databaseUser,
		DatabasePassword:  databasePassword,
		DatabaseHost:      databaseHost,
		DatabasePort:      databasePort,
		DatabaseName:      databaseName,
		DatabaseSSLMode:   databaseSSLMode,
		EmailAPIKey:       emailAPIKey,
		SupportEmail:      supportEmail,
		NoReplyEmail:      noReplyEmail,
		SessionKey:        sessionKeyBytes,
		JwtSigningKey:     jwtSigningKeyBytes,
		Env:               env,
		JobsPerPage:       10,
		SiteName:          siteName,
		SiteHost:          siteHost,
		URLProtocol:       urlProtocol,
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		AuthRatePerMinute: authRatePerMinute,
		ResumeStorage:     ResumeStorageDB,
	}

	return loadResumeStorage(cfg)
}

func loadResumeStorage(cfg Config) (Config, error) {
	storage := os.Getenv("RESUME_STORAGE")
	switch storage {
	case "", ResumeStorageDB:
		cfg.ResumeStorage = ResumeStorageDB
		return cfg, nil
	case ResumeStorageS3:
	default:
		return Config{}, fmt.Errorf("RESUME_STORAGE must be one of %q or %q, got %q", ResumeStorageDB, ResumeStorageS3, storage)
	}
	cfg.ResumeStorage = ResumeStorageS3
	cfg.S3Bucket = os.Getenv("S3_BUCKET")
	if cfg.S3Bucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET cannot be empty")
	}
	cfg.S3Region = os.Getenv("S3_REGION")
	if cfg.S3Region == "" {
		return Config{}, fmt.Errorf("S3_REGION cannot be empty")
	}
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	if cfg.S3AccessKeyID == "" {
		return Config{}, fmt.Errorf("S3_ACCESS_KEY_ID cannot be empty")
	}
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	if cfg.S3SecretAccessKey == "" {
		return Config{}, fmt.Errorf("S3_SECRET_ACCESS_KEY cannot be empty")
	}
	// optional, set for S3 compatible providers
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")

	return cfg, nil
}
