package media

import (
	"context"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"restaurant-service/internal/shared/logging"
)

type S3Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	Region     string
	PresignTTL time.Duration
}

// S3Resolver presigns GET URLs for objects in a single bucket.
type S3Resolver struct {
	cfg    S3Config
	client *minio.Client
}

func NewS3Resolver(cfg S3Config) (*S3Resolver, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = time.Hour
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &S3Resolver{cfg: cfg, client: cl}, nil
}

func (s *S3Resolver) Resolve(ctx context.Context, ref string) string {
	if ref == "" || isAbsolute(ref) {
		return ref
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, strings.TrimLeft(ref, "/"), s.cfg.PresignTTL, nil)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("ref", ref).Msg("presign image")
		return ""
	}
	return u.String()
}
