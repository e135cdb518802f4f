package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^uploads/[0-9a-f]{8}_report_Q3.pdf$`)

func TestObjectKey(t *testing.T) {
	key, name, err := objectKey("/uploads/", `C:\tmp\report Q3.pdf`)
	require.NoError(t, err)
	assert.Equal(t, "report_Q3.pdf", name)
	assert.Regexp(t, keyPattern, key)

	_, _, err = objectKey("uploads", "../")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	l := NewLocal(root, "/media/")

	obj, err := l.Save(context.Background(), "uploads", "report Q3.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, obj.Path)
	assert.Equal(t, "/media/"+obj.Path, obj.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(obj.Path)))
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))

	require.NoError(t, l.Delete(context.Background(), obj.Path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(obj.Path)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, l.Delete(context.Background(), obj.Path))
}

func TestLocalSaveRejectsEmptyName(t *testing.T) {
	l := NewLocal(t.TempDir(), "/media/")
	_, err := l.Save(context.Background(), "uploads", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrEmptyName)
}

type fakeS3 struct {
	put    *s3.PutObjectInput
	body   string
	delKey string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delKey = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3SaveAndDelete(t *testing.T) {
	fake := &fakeS3{}
	s := &S3{opts: S3Options{Bucket: "media", PublicURL: "https://cdn.test/media"}, cli: fake}

	obj, err := s.Save(context.Background(), "uploads", "logo.png", io.LimitReader(strings.NewReader("png-bytes"), 100))
	require.NoError(t, err)
	assert.Equal(t, "media", aws.ToString(fake.put.Bucket))
	assert.Equal(t, obj.Path, aws.ToString(fake.put.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.put.ContentType))
	assert.Equal(t, "png-bytes", fake.body)
	assert.Equal(t, "https://cdn.test/media/"+obj.Path, obj.URL)

	require.NoError(t, s.Delete(context.Background(), obj.Path))
	assert.Equal(t, obj.Path, fake.delKey)
}
