package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSDK(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		presignGetObject = origPresign
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

var testOpts = S3Options{
	Region:       "us-east-1",
	AccessKey:    "admin",
	SecretKey:    "secretpassword",
	BaseEndpoint: "http://127.0.0.1:9000",
	Bucket:       "threatscope",
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	stubSDK(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		creds, err := lo.Credentials.Retrieve(ctx)
		if err != nil {
			t.Fatalf("retrieve creds: %v", err)
		}
		if creds.AccessKeyID != "admin" || creds.SecretAccessKey != "secretpassword" {
			t.Fatalf("unexpected creds: %+v", creds)
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	s, err := NewS3Store(context.Background(), testOpts)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	stubSDK(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), testOpts)
	assert.EqualError(t, err, "blob store error: no config")
}

func TestS3Store_Put(t *testing.T) {
	stubSDK(t)

	var captured *s3.PutObjectInput
	var body string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		captured = in
		b, _ := io.ReadAll(in.Body)
		body = string(b)
		return &s3.PutObjectOutput{}, nil
	}

	s, err := NewS3Store(context.Background(), testOpts)
	require.NoError(t, err)

	ref, err := s.Put(context.Background(), "files/a.exe", strings.NewReader("MZ.."), 4, "application/x-msdownload")
	require.NoError(t, err)
	assert.Equal(t, "files/a.exe", ref)
	assert.Equal(t, "MZ..", body)
	assert.Equal(t, "threatscope", aws.ToString(captured.Bucket))
	assert.Equal(t, "files/a.exe", aws.ToString(captured.Key))
	assert.Equal(t, int64(4), aws.ToInt64(captured.ContentLength))
	assert.Equal(t, "application/x-msdownload", aws.ToString(captured.ContentType))
}

func TestS3Store_PutError(t *testing.T) {
	stubSDK(t)
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("bucket missing")
	}

	s, err := NewS3Store(context.Background(), testOpts)
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "files/a", strings.NewReader("x"), 1, "")
	assert.EqualError(t, err, "blob store error: bucket missing")
}

func TestS3Store_URL(t *testing.T) {
	stubSDK(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != PresignTTL {
			t.Fatalf("expires = %v", po.Expires)
		}
		return &v4.PresignedHTTPRequest{URL: "http://minio/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?sig"}, nil
	}

	s, err := NewS3Store(context.Background(), testOpts)
	require.NoError(t, err)

	var signer URLSigner = s
	u, err := signer.URL(context.Background(), "photos/me.png")
	require.NoError(t, err)
	assert.Equal(t, "http://minio/threatscope/photos/me.png?sig", u)
}

func TestS3Store_URLError(t *testing.T) {
	stubSDK(t)
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign failed")
	}

	s, err := NewS3Store(context.Background(), testOpts)
	require.NoError(t, err)

	_, err = s.URL(context.Background(), "photos/x")
	assert.EqualError(t, err, "blob store error: sign failed")
}
