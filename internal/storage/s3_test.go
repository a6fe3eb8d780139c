package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

// fakeUploadAPI records the inputs it receives and answers with err.
type fakeUploadAPI struct {
	// inputs are the requests received, in order.
	inputs []*s3.PutObjectInput
	// bodies holds the bytes read from each request body.
	bodies [][]byte
	// err is returned from every Upload call.
	err error
}

// Upload records the request and drains its body like the real uploader.
func (f *fakeUploadAPI) Upload(
	_ context.Context,
	input *s3.PutObjectInput,
	_ ...func(*manager.Uploader),
) (*manager.UploadOutput, error) {
	f.inputs = append(f.inputs, input)

	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}

	f.bodies = append(f.bodies, body)

	if f.err != nil {
		return nil, f.err
	}

	return &manager.UploadOutput{Location: "https://example/" + aws.ToString(input.Key)}, nil
}

// TestS3Uploader_Upload checks bucket, key, ACL and body are sent as configured.
func TestS3Uploader_Upload(t *testing.T) {
	t.Parallel()

	api := new(fakeUploadAPI)

	uploader, err := newS3Uploader(api, "flibidydibidy.com", "public-read")
	require.NoError(t, err)

	err = uploader.Upload(context.Background(), &Object{
		Key:         "dist/graphite_x86.zip",
		Body:        bytes.NewReader([]byte("zip bytes")),
		Size:        9,
		ContentType: "application/zip",
	})
	require.NoError(t, err)

	require.Len(t, api.inputs, 1)
	input := api.inputs[0]
	require.Equal(t, "flibidydibidy.com", aws.ToString(input.Bucket))
	require.Equal(t, "dist/graphite_x86.zip", aws.ToString(input.Key))
	require.Equal(t, types.ObjectCannedACLPublicRead, input.ACL)
	require.Equal(t, "application/zip", aws.ToString(input.ContentType))
	require.Equal(t, "zip bytes", string(api.bodies[0]))
}

// TestS3Uploader_WrapsErrors ensures client failures come back as *Error with the service code.
func TestS3Uploader_WrapsErrors(t *testing.T) {
	t.Parallel()

	api := &fakeUploadAPI{
		err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"},
	}

	uploader, err := newS3Uploader(api, "flibidydibidy.com", "public-read")
	require.NoError(t, err)

	err = uploader.Upload(context.Background(), &Object{
		Key:  "dist/graphite_x86.exe",
		Body: bytes.NewReader(nil),
	})
	require.Error(t, err)
	require.True(t, IsStorageError(err))

	var storageErr *Error

	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "dist/graphite_x86.exe", storageErr.Key)
	require.Equal(t, "AccessDenied", storageErr.Code())
	require.Contains(t, err.Error(), "s3://flibidydibidy.com/dist/graphite_x86.exe")
}

// TestNewS3Uploader_Validation rejects a missing bucket and an unknown ACL.
func TestNewS3Uploader_Validation(t *testing.T) {
	t.Parallel()

	_, err := newS3Uploader(new(fakeUploadAPI), "", "public-read")
	require.ErrorIs(t, err, errBucketRequired)

	_, err = newS3Uploader(new(fakeUploadAPI), "bucket", "everyone")
	require.ErrorIs(t, err, errUnknownACL)
}

// TestError_CodeWithoutAPIError returns an empty code for transport failures.
func TestError_CodeWithoutAPIError(t *testing.T) {
	t.Parallel()

	err := &Error{Bucket: "b", Key: "k", Err: io.ErrUnexpectedEOF}
	require.Empty(t, err.Code())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// TestDryRunUploader_ReadsNothing verifies the dry-run uploader leaves the body untouched.
func TestDryRunUploader_ReadsNothing(t *testing.T) {
	t.Parallel()

	body := bytes.NewReader([]byte("payload"))

	err := NewDryRunUploader("flibidydibidy.com").Upload(context.Background(), &Object{
		Key:  "dist/graphite_x64.zip",
		Body: body,
		Size: 7,
	})
	require.NoError(t, err)
	require.Equal(t, 7, body.Len())
}
