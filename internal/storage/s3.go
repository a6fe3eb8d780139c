package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flibidydibidy/graphite-deploy/internal/logger"
)

var (
	// errBucketRequired is returned when the uploader is built without a bucket.
	errBucketRequired = errors.New("bucket must be provided")
	// errUnknownACL is returned for an ACL that is not an S3 canned ACL.
	errUnknownACL = errors.New("unknown canned ACL")
)

// S3Options configure the S3 uploader.
type S3Options struct {
	// Bucket receives every object.
	Bucket string
	// ACL is the canned ACL applied to every object, e.g. public-read.
	ACL string
	// Region overrides the region of the ambient AWS configuration.
	Region string
	// Endpoint targets an S3-compatible store; path-style addressing is used with it.
	Endpoint string
	// AppID is sent in the User-Agent of every request.
	AppID string
}

// uploadAPI is the part of manager.Uploader used here.
type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Uploader uploads objects with the AWS SDK upload manager.
type S3Uploader struct {
	// api performs single or multipart uploads.
	api uploadAPI
	// bucket receives every object.
	bucket string
	// acl is applied to every object.
	acl types.ObjectCannedACL
}

// NewS3Uploader builds an uploader from the ambient AWS configuration
// (environment, shared config files, instance role).
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID(opts.AppID),
	}

	if opts.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(opts.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(manager.NewUploader(client), opts.Bucket, opts.ACL)
}

// newS3Uploader validates the destination and wraps api.
func newS3Uploader(api uploadAPI, bucket, acl string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, errBucketRequired
	}

	cannedACL := types.ObjectCannedACL(acl)
	if !slices.Contains(cannedACL.Values(), cannedACL) {
		return nil, fmt.Errorf("%w: %s", errUnknownACL, acl)
	}

	return &S3Uploader{
		api:    api,
		bucket: bucket,
		acl:    cannedACL,
	}, nil
}

// Upload sends the object to the bucket with the configured ACL.
func (u *S3Uploader) Upload(ctx context.Context, object *Object) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(object.Key),
		Body:   object.Body,
		ACL:    u.acl,
	}

	if object.ContentType != "" {
		input.ContentType = aws.String(object.ContentType)
	}

	logger.DebugKV(ctx, "Uploading object", "bucket", u.bucket, "key", object.Key, "size", object.Size)

	output, err := u.api.Upload(ctx, input)
	if err != nil {
		return &Error{
			Bucket: u.bucket,
			Key:    object.Key,
			Err:    err,
		}
	}

	logger.InfoKV(ctx, "Uploaded object", "location", output.Location, "acl", string(u.acl))

	return nil
}

// DryRunUploader logs the objects it would upload and reads nothing.
type DryRunUploader struct {
	// bucket is only used in log messages.
	bucket string
}

// NewDryRunUploader returns an uploader that never contacts the store.
func NewDryRunUploader(bucket string) *DryRunUploader {
	return &DryRunUploader{bucket: bucket}
}

// Upload logs the object and returns nil.
func (u *DryRunUploader) Upload(ctx context.Context, object *Object) error {
	logger.InfoKV(ctx, "Dry run, skipping upload", "bucket", u.bucket, "key", object.Key, "size", object.Size)

	return nil
}
