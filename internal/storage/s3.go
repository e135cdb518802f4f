package storage

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures an S3-compatible bucket (AWS, MinIO, Ceph).
type S3Options struct {
	Endpoint  string // empty uses the AWS default resolver
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PathStyle bool
	PublicURL string // base for returned URLs; defaults to Endpoint/Bucket
}

// putObjectAPI is the slice of *s3.Client the store needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	opts S3Options
	cli  putObjectAPI
}

func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	if opts.Endpoint != "" {
		loaders = append(loaders, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: opts.Endpoint, HostnameImmutable: opts.PathStyle}, nil
				},
			),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, err
	}
	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.PathStyle
	})
	if opts.PublicURL == "" {
		opts.PublicURL = joinURL(opts.Endpoint, opts.Bucket)
	}
	return &S3{opts: opts, cli: cli}, nil
}

func (s *S3) Save(ctx context.Context, dir, name string, r io.Reader) (Object, error) {
	key, clean, err := objectKey(dir, name)
	if err != nil {
		return Object{}, err
	}
	// PutObject needs a seekable body to sign the payload.
	body, ok := r.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(r)
		if err != nil {
			return Object{}, err
		}
		body = bytes.NewReader(buf)
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if ct := mime.TypeByExtension(path.Ext(clean)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.cli.PutObject(ctx, in); err != nil {
		return Object{}, err
	}
	return Object{Name: clean, Path: key, URL: joinURL(s.opts.PublicURL, key)}, nil
}

func (s *S3) Delete(ctx context.Context, p string) error {
	_, err := s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(p),
	})
	return err
}
