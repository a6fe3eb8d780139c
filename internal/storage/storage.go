package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/smithy-go"
)

// Object is a single blob to publish.
type Object struct {
	// Key is the object key inside the bucket.
	Key string
	// Body streams the object contents.
	Body io.Reader
	// Size is the length of Body in bytes, used for logs and metrics.
	Size int64
	// ContentType is sent as the Content-Type header when set.
	ContentType string
}

// Uploader publishes objects to the release bucket.
type Uploader interface {
	Upload(ctx context.Context, object *Object) error
}

// Error describes a failed upload.
type Error struct {
	// Bucket is the bucket the object was sent to.
	Bucket string
	// Key is the key of the object that failed.
	Key string
	// Err is the underlying client error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("upload s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying client error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the service error code, such as AccessDenied, or "" for transport errors.
func (e *Error) Code() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.ErrorCode()
	}

	return ""
}

// IsStorageError reports whether err was produced by an Uploader.
func IsStorageError(err error) bool {
	var storageErr *Error

	return errors.As(err, &storageErr)
}
