// internal/storage/cloud_storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/domain"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
)

var _ BlobStore = (*CloudStorage)(nil)

// CloudStorage implements BlobStore using an S3-compatible object store.
// BlobEndpoint lets this point at a non-AWS S3-compatible service (e.g. a
// local MinIO instance) by overriding the SDK's default endpoint resolver;
// leaving it empty falls back to AWS's own region-based resolution.
type CloudStorage struct {
	config        *config.Config
	logger        *zap.Logger
	s3Client      *s3.Client
	s3Uploader    *manager.Uploader
	s3Downloader  *manager.Downloader
	presignClient *s3.PresignClient
}

type staticCredentialsProvider struct {
	accessKey, secretKey string
}

func (p staticCredentialsProvider) Retrieve(context.Context) (aws.Credentials, error) {
	return aws.Credentials{AccessKeyID: p.accessKey, SecretAccessKey: p.secretKey}, nil
}

// NewCloudStorage creates a new CloudStorage instance, initializing the AWS
// S3 client and uploader/downloader/presigner.
func NewCloudStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*CloudStorage, error) {
	const operation = "NewCloudStorage"
	storageLogger := logger.Named("CloudStorage")

	storageLogger.Info("initializing blob store", zap.String("operation", operation), zap.String("bucket", cfg.BlobBucket), zap.String("region", cfg.AWSRegion))

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.BlobAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentialsProvider{cfg.BlobAccessKey, cfg.BlobSecretKey}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		storageLogger.Error("failed to load AWS configuration", zap.String("operation", operation), zap.Error(err))
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BlobEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BlobEndpoint)
			o.UsePathStyle = true
		}
	})

	cs := &CloudStorage{
		config:        cfg,
		logger:        storageLogger,
		s3Client:      s3Client,
		s3Uploader:    manager.NewUploader(s3Client),
		s3Downloader:  manager.NewDownloader(s3Client),
		presignClient: s3.NewPresignClient(s3Client),
	}

	storageLogger.Info("blob store initialized", zap.String("operation", operation), zap.String("bucket", cfg.BlobBucket))
	return cs, nil
}

// Put implements BlobStore.
func (s *CloudStorage) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	const operation = "CloudStorage.Put"
	requestID := utils.GetRequestID(ctx)
	s.logger.Info("uploading blob", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key), zap.String("content_type", contentType))

	_, err := s.s3Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BlobBucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("blob upload failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key), zap.Error(err))
		return "", domain.NewBackendTransientError("blob_store", fmt.Errorf("upload failed: %w", err))
	}

	url := fmt.Sprintf("blob://%s/%s", s.config.BlobBucket, key)
	s.logger.Info("blob uploaded", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key))
	return url, nil
}

// Get implements BlobStore.
func (s *CloudStorage) Get(ctx context.Context, key string) ([]byte, error) {
	const operation = "CloudStorage.Get"
	requestID := utils.GetRequestID(ctx)
	s.logger.Info("downloading blob", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key))

	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.s3Downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BlobBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			s.logger.Warn("blob not found", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key))
			return nil, domain.NewNotFoundError("blob", key)
		}
		s.logger.Error("blob download failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key), zap.Error(err))
		return nil, domain.NewBackendTransientError("blob_store", fmt.Errorf("download failed: %w", err))
	}

	s.logger.Info("blob downloaded", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key))
	return buf.Bytes(), nil
}

// Delete implements BlobStore. Deleting a missing key is not an error — S3's
// DeleteObject is already idempotent this way.
func (s *CloudStorage) Delete(ctx context.Context, key string) error {
	const operation = "CloudStorage.Delete"
	requestID := utils.GetRequestID(ctx)
	s.logger.Info("deleting blob", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key))

	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BlobBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("blob deletion failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key), zap.Error(err))
		return domain.NewBackendTransientError("blob_store", fmt.Errorf("delete failed: %w", err))
	}

	s.logger.Info("blob deleted", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key))
	return nil
}

// Presign implements BlobStore.
func (s *CloudStorage) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	const operation = "CloudStorage.Presign"
	requestID := utils.GetRequestID(ctx)

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BlobBucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		s.logger.Error("presign failed", zap.String("operation", operation), zap.String("request_id", requestID), zap.String("key", key), zap.Error(err))
		return "", domain.NewBackendTransientError("blob_store", fmt.Errorf("presign failed: %w", err))
	}

	return req.URL, nil
}
