package sink

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Environment variables read by S3ConfigFromEnv
const (
	EnvS3Endpoint  = "METAEXTRACTOR_S3_ENDPOINT"
	EnvS3AccessKey = "METAEXTRACTOR_S3_ACCESS_KEY"
	EnvS3SecretKey = "METAEXTRACTOR_S3_SECRET_KEY"
	EnvS3Region    = "METAEXTRACTOR_S3_REGION"
	EnvS3UseSSL    = "METAEXTRACTOR_S3_USE_SSL"
)

const defaultS3Endpoint = "https://s3.amazonaws.com"

// S3Config holds the connection settings for an S3-compatible store
type S3Config struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

// S3ConfigFromEnv reads the METAEXTRACTOR_S3_* variables
func S3ConfigFromEnv() S3Config {
	cfg := S3Config{
		EndpointURL:     os.Getenv(EnvS3Endpoint),
		AccessKeyID:     os.Getenv(EnvS3AccessKey),
		SecretAccessKey: os.Getenv(EnvS3SecretKey),
		Region:          os.Getenv(EnvS3Region),
	}
	if cfg.EndpointURL == "" {
		cfg.EndpointURL = defaultS3Endpoint
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvS3UseSSL)); err == nil {
		cfg.UseSSL = v
	}
	return cfg
}

// NewS3Client creates a minio client. No request is made until the first upload.
func NewS3Client(cfg S3Config) (*minio.Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("s3 credentials are required (%s, %s)", EnvS3AccessKey, EnvS3SecretKey)
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 endpoint: %w", err)
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}

	useSSL := cfg.UseSSL
	if u.Scheme == "https" {
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return client, nil
}
