package storage

import (
	"Go_Share/config"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	createIn   *s3.CreateMultipartUploadInput
	completeIn *s3.CompleteMultipartUploadInput
	abortIn    *s3.AbortMultipartUploadInput
	deleteIn   *s3.DeleteObjectInput
	err        error
}

func (f *fakeS3) CreateMultipartUpload(_ context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	f.createIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
}

func (f *fakeS3) CompleteMultipartUpload(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.completeIn = in
	return &s3.CompleteMultipartUploadOutput{}, f.err
}

func (f *fakeS3) AbortMultipartUpload(_ context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.abortIn = in
	return &s3.AbortMultipartUploadOutput{}, f.err
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteIn = in
	return &s3.DeleteObjectOutput{}, f.err
}

func newTestS3Store(api s3API) *S3Store {
	return &S3Store{api: api, presign: &s3.PresignClient{}, bucket: "share"}
}

func TestS3StoreMultipartLifecycle(t *testing.T) {
	api := &fakeS3{}
	store := newTestS3Store(api)
	ctx := context.Background()

	id, err := store.InitiateMultipartUpload(ctx, "uploads/a.bin", "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "upload-1", id)
	assert.Equal(t, "share", aws.ToString(api.createIn.Bucket))
	assert.Equal(t, "application/octet-stream", aws.ToString(api.createIn.ContentType))

	err = store.CompleteMultipartUpload(ctx, "uploads/a.bin", id, []CompletedPart{
		{PartNumber: 1, ETag: "e1"},
		{PartNumber: 2, ETag: "e2"},
	})
	require.NoError(t, err)
	parts := api.completeIn.MultipartUpload.Parts
	require.Len(t, parts, 2)
	assert.Equal(t, int32(2), aws.ToInt32(parts[1].PartNumber))
	assert.Equal(t, "e2", aws.ToString(parts[1].ETag))

	require.NoError(t, store.AbortMultipartUpload(ctx, "uploads/a.bin", id))
	assert.Equal(t, id, aws.ToString(api.abortIn.UploadId))

	require.NoError(t, store.RemoveObject(ctx, "uploads/a.bin"))
	assert.Equal(t, "uploads/a.bin", aws.ToString(api.deleteIn.Key))
}

func TestS3StoreCompleteRejectsEmptyManifest(t *testing.T) {
	api := &fakeS3{}
	err := newTestS3Store(api).CompleteMultipartUpload(context.Background(), "k", "u", nil)
	require.Error(t, err)
	assert.Nil(t, api.completeIn)
}

func TestS3StoreInitiatePropagatesError(t *testing.T) {
	api := &fakeS3{err: errors.New("boom")}
	_, err := newTestS3Store(api).InitiateMultipartUpload(context.Background(), "k", "")
	require.Error(t, err)
	assert.Nil(t, api.createIn.ContentType)
}

type codedErr string

func (e codedErr) Error() string     { return string(e) }
func (e codedErr) ErrorCode() string { return string(e) }

func TestS3StoreMapsNoSuchUpload(t *testing.T) {
	ctx := context.Background()

	api := &fakeS3{err: &types.NoSuchUpload{}}
	err := newTestS3Store(api).AbortMultipartUpload(ctx, "k", "gone")
	assert.ErrorIs(t, err, ErrNoSuchUpload)

	api.err = codedErr("NoSuchUpload")
	err = newTestS3Store(api).CompleteMultipartUpload(ctx, "k", "gone", []CompletedPart{{PartNumber: 1, ETag: "e"}})
	assert.ErrorIs(t, err, ErrNoSuchUpload)

	api.err = codedErr("AccessDenied")
	err = newTestS3Store(api).AbortMultipartUpload(ctx, "k", "u")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSuchUpload)
}

func TestS3StorePresign(t *testing.T) {
	origPart, origGet := presignUploadPart, presignGetObject
	t.Cleanup(func() {
		presignUploadPart = origPart
		presignGetObject = origGet
	})

	var partIn *s3.UploadPartInput
	presignUploadPart = func(_ *s3.PresignClient, _ context.Context, in *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		partIn = in
		var opts s3.PresignOptions
		for _, fn := range optFns {
			fn(&opts)
		}
		assert.Equal(t, 10*time.Minute, opts.Expires)
		return &v4.PresignedHTTPRequest{URL: "https://s3/part"}, nil
	}
	var getIn *s3.GetObjectInput
	presignGetObject = func(_ *s3.PresignClient, _ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		getIn = in
		return &v4.PresignedHTTPRequest{URL: "https://s3/get"}, nil
	}

	store := newTestS3Store(&fakeS3{})
	ctx := context.Background()

	u, err := store.PresignUploadPart(ctx, "k", "up", 3, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://s3/part", u)
	assert.Equal(t, int32(3), aws.ToInt32(partIn.PartNumber))
	assert.Equal(t, "up", aws.ToString(partIn.UploadId))

	u, err = store.PresignGetObject(ctx, "k", time.Hour, map[string]string{
		ParamContentDisposition: `attachment; filename="a.txt"`,
		ParamContentType:        "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://s3/get", u)
	assert.Equal(t, `attachment; filename="a.txt"`, aws.ToString(getIn.ResponseContentDisposition))
	assert.Equal(t, "text/plain", aws.ToString(getIn.ResponseContentType))
}

func TestNewS3StoreAppliesConfig(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(_ context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(_ aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	cfg := &config.StorageConfig{
		Bucket: "share",
		S3: config.S3Config{
			Region:          "eu-central-1",
			AccessKeyID:     "id",
			SecretAccessKey: "secret",
			Endpoint:        "http://127.0.0.1:9000",
			UsePathStyle:    true,
		},
	}
	store, err := NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "share", store.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3StoreLoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err := NewS3Store(context.Background(), &config.StorageConfig{})
	require.Error(t, err)
}
