package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/dmitrijs2005/cookbook/internal/server/config"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

func newImagesForPresign() *S3Images {
	return NewS3Images(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "cookbook",
	})
}

// stubS3 replaces the client constructors for the duration of the test.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func Test_getPresignClient_SuccessAndError(t *testing.T) {
	stubS3(t)
	images := newImagesForPresign()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := images.getPresignClient(context.Background())
	require.NoError(t, err)
	require.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = images.getPresignClient(context.Background())
	require.EqualError(t, err, "load-fail")
}

func TestPresignUploadAndDownload(t *testing.T) {
	stubS3(t)
	images := newImagesForPresign()

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "cookbook", *in.Bucket)
		return &v4.PresignedHTTPRequest{URL: "https://put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://get/" + *in.Key}, nil
	}

	put, err := images.PresignUpload(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "https://put/k1", put)

	get, err := images.PresignDownload(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "https://get/k1", get)
}

func TestPresign_Errors(t *testing.T) {
	stubS3(t)
	images := newImagesForPresign()

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-get-fail")
	}

	_, err := images.PresignUpload(context.Background(), "k")
	require.EqualError(t, err, "presign-put-fail")
	_, err = images.PresignDownload(context.Background(), "k")
	require.EqualError(t, err, "presign-get-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = images.PresignUpload(context.Background(), "k")
	require.EqualError(t, err, "load-fail")
	_, err = images.PresignDownload(context.Background(), "k")
	require.EqualError(t, err, "load-fail")
}

func TestImageStorageKey(t *testing.T) {
	a := ImageStorageKey(models.FamilyRef(7))
	b := ImageStorageKey(models.FamilyRef(7))
	assert.True(t, strings.HasPrefix(a, "recipes/family/7/"))
	assert.NotEqual(t, a, b)
}
