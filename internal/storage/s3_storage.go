package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/config"
)

// DocumentUpload is a presigned PUT target for one seller document.
type DocumentUpload struct {
	URL       string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IS3Storage issues upload URLs for seller documents.
type IS3Storage interface {
	PresignDocumentUpload(ctx context.Context, sellerID, kind, filename, contentType string) (*DocumentUpload, error)
}

type s3Storage struct {
	bucket        string
	ttl           time.Duration
	presignClient *s3.PresignClient
	logger        *zap.Logger
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config, logger *zap.Logger) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newS3Storage(s3.NewFromConfig(awsCfg), cfg.AwsS3Bucket, cfg.UploadURLTTL, logger), nil
}

func newS3Storage(client *s3.Client, bucket string, ttl time.Duration, logger *zap.Logger) *s3Storage {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &s3Storage{
		bucket:        bucket,
		ttl:           ttl,
		presignClient: s3.NewPresignClient(client),
		logger:        logger,
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

// PresignDocumentUpload returns a presigned PUT URL under
// sellers/<sellerID>/<kind>/<uuid>_<filename>.
func (s *s3Storage) PresignDocumentUpload(ctx context.Context, sellerID, kind, filename, contentType string) (*DocumentUpload, error) {
	objectKey := fmt.Sprintf("sellers/%s/%s/%s_%s", sellerID, kind, uuid.NewString(), sanitizeFilename(filename))

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	s.logger.Debug("presigned document upload", zap.String("key", objectKey), zap.String("kind", kind))
	return &DocumentUpload{
		URL:       presignedReq.URL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}, nil
}
