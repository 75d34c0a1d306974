// Package archive persists the captured output of finished deployments: a
// plain-text log file in a local directory, optionally mirrored to an
// S3-compatible bucket through a presigned PUT.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/astepanovs/gatehouse/internal/filex"
	"github.com/astepanovs/gatehouse/internal/logging"
	"github.com/astepanovs/gatehouse/internal/netx"
	"github.com/astepanovs/gatehouse/internal/server/config"
	"github.com/astepanovs/gatehouse/internal/server/deploy"
)

const logDirName = "deploylogs"

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	uploadToPresignedURL = netx.UploadToS3PresignedURL
)

// S3Archiver writes deployment logs to a local deploylogs directory and, when
// a bucket is configured, uploads each log to S3 via a presigned PUT URL.
type S3Archiver struct {
	config *config.Config
	logger logging.Logger
}

func NewS3Archiver(cfg *config.Config, logger logging.Logger) *S3Archiver {
	return &S3Archiver{config: cfg, logger: logger}
}

// storageKey partitions logs by date so bucket listings stay browsable.
func storageKey(d time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%02d/%v.log", logDirName, d.Year(), d.Month(), d.Day(), uuid.New())
}

func formatLog(result *deploy.Result) []byte {
	status := "success"
	if result.Err != nil {
		status = result.Err.Error()
	}
	return []byte(fmt.Sprintf(
		"source: %s\nstarted: %s\nfinished: %s\nexit code: %d\nstatus: %s\n\n--- stdout ---\n%s\n--- stderr ---\n%s\n",
		result.Source,
		result.StartedAt.Format(time.RFC3339),
		result.FinishedAt.Format(time.RFC3339),
		result.ExitCode,
		status,
		result.Stdout,
		result.Stderr,
	))
}

// Archive writes the log locally and mirrors it to the configured bucket.
// The local copy is written first; an upload failure does not remove it.
func (a *S3Archiver) Archive(ctx context.Context, result *deploy.Result) error {
	content := formatLog(result)

	path, err := a.writeLocal(result.FinishedAt, content)
	if err != nil {
		return fmt.Errorf("error writing local deployment log: %w", err)
	}
	a.logger.Info(ctx, "deployment log written", "path", path)

	if a.config.S3Bucket == "" {
		return nil
	}

	url, err := a.presignedPutURL(ctx)
	if err != nil {
		return fmt.Errorf("error presigning upload: %w", err)
	}
	if err := uploadToPresignedURL(url, content); err != nil {
		return fmt.Errorf("error uploading deployment log: %w", err)
	}
	return nil
}

func (a *S3Archiver) writeLocal(finishedAt time.Time, content []byte) (string, error) {
	dir, err := filex.EnsureSubdDir(logDirName)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s.log", finishedAt.Format("20060102-150405"), uuid.New())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o640); err != nil {
		return "", err
	}
	return path, nil
}

func (a *S3Archiver) presignedPutURL(ctx context.Context) (string, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(a.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return "", err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
	})

	bucket := a.config.S3Bucket
	key := storageKey(time.Now())

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
