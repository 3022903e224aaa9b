package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/editorstack/go-uploader/upload/progress"
)

const numS3UploadRetries = 3

// S3Params configure the direct-to-storage upload mode.
type S3Params struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// KeyPrefix is prepended to the object key of every uploaded file.
	KeyPrefix string
	// PublicBaseURL overrides the bucket's virtual-hosted URL when building
	// the asset URL.
	PublicBaseURL string
	// PartSizeMB is the multipart part size. Default: 10.
	PartSizeMB int64
}

// s3Strategy uploads the file straight to the configured bucket instead of
// the upload endpoint.
type s3Strategy struct {
	params S3Params
	logger log.Logger

	onProgress  func(percent int)
	onStatus    func(message string, phase progress.Phase)
	lastPercent int
}

func (s *s3Strategy) Execute(ctx context.Context, src Source) (Asset, error) {
	if s.params.Bucket == "" {
		return Asset{}, fmt.Errorf("bucket must not be empty")
	}

	cfg, err := loadAWSCredentials(ctx, s.params.Region, s.params.AccessKeyID, s.params.SecretAccessKey, s.logger)
	if err != nil {
		return Asset{}, fmt.Errorf("load aws credentials: %w", err)
	}
	client := s3.NewFromConfig(*cfg)

	key := path.Join(s.params.KeyPrefix, src.Name())
	s.status(fmt.Sprintf("Uploading %s", src.Name()), progress.PhaseSingleUpload)

	partMB := s.params.PartSizeMB
	if partMB <= 0 {
		partMB = 10
	}

	err = retry.Times(numS3UploadRetries).Wait(5 * time.Second).TryWithAbort(func(attempt uint) (error, bool) {
		reader, err := src.Open()
		if err != nil {
			return fmt.Errorf("open source: %w", err), true
		}
		defer reader.Close() //nolint:errcheck

		uploader := manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = partMB * 1024 * 1024
		})

		_, err = uploader.Upload(ctx, &s3.PutObjectInput{
			Body:          &countingReader{r: reader, total: src.Size(), report: s.report},
			Bucket:        aws.String(s.params.Bucket),
			Key:           aws.String(key),
			ContentType:   aws.String(src.ContentType()),
			ContentLength: aws.Int64(src.Size()),
		})
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("upload cancelled: %w", ctx.Err()), true
			}
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("upload object: %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()), false
			}
			return fmt.Errorf("upload object: %w", err), false
		}

		return nil, true
	})
	if err != nil {
		return Asset{}, err
	}

	s.report(100)

	size := src.Size()
	format := src.ContentType()
	return Asset{
		URL:    s.publicURL(key),
		Size:   &size,
		Format: &format,
	}, nil
}

func (s *s3Strategy) SetProgressCallback(fn func(percent int)) {
	s.onProgress = fn
}

func (s *s3Strategy) SetStatusCallback(fn func(message string, phase progress.Phase)) {
	s.onStatus = fn
}

func (s *s3Strategy) Cleanup() {}

func (s *s3Strategy) Name() string {
	return "s3"
}

func (s *s3Strategy) publicURL(key string) string {
	if s.params.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.params.PublicBaseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.params.Bucket, s.params.Region, key)
}

func (s *s3Strategy) report(percent int) {
	if percent < s.lastPercent {
		return
	}
	s.lastPercent = percent
	if s.onProgress != nil {
		s.onProgress(percent)
	}
}

func (s *s3Strategy) status(message string, phase progress.Phase) {
	if s.onStatus != nil {
		s.onStatus(message, phase)
	}
}

// countingReader reports upload progress for a sequentially read body.
type countingReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report func(percent int)
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.sent += int64(n)
	if c.total > 0 && c.report != nil {
		percent := int(c.sent * 100 / c.total)
		if percent > 100 {
			percent = 100
		}
		c.report(percent)
	}
	return n, err
}

func loadAWSCredentials(
	ctx context.Context,
	region string,
	accessKeyID string,
	secretKey string,
	logger log.Logger,
) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
