// Package storage publishes release objects to an S3-compatible bucket.
//
// The Uploader interface is what the packager depends on. S3Uploader implements
// it with the AWS SDK upload manager and applies the configured canned ACL to
// every object. Credentials and region come from the ambient AWS environment.
// Every failure is returned as *Error so callers can tell storage problems
// apart from local ones.
package storage
