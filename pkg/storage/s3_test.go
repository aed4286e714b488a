package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type s3Stub struct {
	objects map[string]string
	types   map[string]string
	putErr  error
}

func (s *s3Stub) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	s.objects[aws.ToString(in.Key)] = string(body)
	s.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (s *s3Stub) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := s.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (s *s3Stub) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(s.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageRoundTrip(t *testing.T) {
	stub := &s3Stub{objects: map[string]string{}, types: map[string]string{}}
	store, err := NewS3Storage(stub, "evidence")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Put(ctx, "evidence/x.pdf", strings.NewReader("pdf"), 3, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", stub.types[key])

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	require.Equal(t, "pdf", string(body))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	require.Error(t, err)
}

func TestS3StorageErrors(t *testing.T) {
	_, err := NewS3Storage(nil, "bucket")
	require.Error(t, err)
	_, err = NewS3Storage(&s3Stub{}, "")
	require.Error(t, err)

	store, err := NewS3Storage(&s3Stub{putErr: errors.New("denied")}, "bucket")
	require.NoError(t, err)
	_, err = store.Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	require.ErrorContains(t, err, "denied")
	_, err = store.Put(context.Background(), "", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, ErrInvalidKey)
}
