package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

type S3Config struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string
	URLExpiry       time.Duration
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest mirrors the fields of the SDK's presigned request we use.
type PresignedRequest struct {
	URL    string
	Method string
}

// S3Store keeps attachments in an S3-compatible bucket. Object keys are the
// file identity plus the original extension; URLs are presigned locally.
type S3Store struct {
	objects   ObjectPutter
	presigner ObjectPresigner
	bucket    string
	expiry    time.Duration
	logger    *logging.Logger
}

func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := s3Config.LoadDefaultConfig(ctx,
		s3Config.WithRegion(cfg.Region),
		s3Config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return client, nil
}

func NewS3Store(client *s3.Client, cfg S3Config, logger *logging.Logger) *S3Store {
	if logger == nil {
		logger = logging.Nop()
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Store{
		objects:   client,
		presigner: sdkPresigner{s3.NewPresignClient(client)},
		bucket:    cfg.Bucket,
		expiry:    expiry,
		logger:    logger,
	}
}

// EnsureBucket creates the bucket, treating "already exists" as success.
func EnsureBucket(ctx context.Context, client *s3.Client, name string, logger *logging.Logger) error {
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
	if err != nil {
		var opErr *awshttp.ResponseError
		if errors.As(err, &opErr) && opErr.HTTPStatusCode() == 409 {
			logger.Info(ctx, "Bucket already exists", zap.String("bucket", name))
			return nil
		}
	}
	return err
}

func (s *S3Store) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	if s.bucket == "" {
		return "", &errdefs.ServiceError{Op: "upload file", Message: "bucket is not set", Err: errdefs.ErrNotConfigured}
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	id, err := NewFileID()
	if err != nil {
		return "", err
	}
	key := id + strings.ToLower(path.Ext(name))

	_, err = s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   content,
	})
	if err != nil {
		return "", &errdefs.ServiceError{Op: "upload file", Message: err.Error(), Err: fmt.Errorf("%w: %w", errdefs.ErrUnavailable, err)}
	}
	return key, nil
}

func (s *S3Store) ViewURL(fileID string) string {
	return s.presign(fileID, "inline")
}

func (s *S3Store) DownloadURL(fileID string) string {
	return s.presign(fileID, "attachment")
}

func (s *S3Store) presign(fileID, disposition string) string {
	if s.bucket == "" || fileID == "" {
		return Placeholder
	}
	// Presigning is a local signature computation.
	req, err := s.presigner.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(fileID),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Warn(context.Background(), "failed to presign file url", zap.String("file_id", fileID), zap.Error(err))
		return Placeholder
	}
	return req.URL
}

type sdkPresigner struct {
	client *s3.PresignClient
}

func (p sdkPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.client.PresignGetObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL, Method: req.Method}, nil
}
