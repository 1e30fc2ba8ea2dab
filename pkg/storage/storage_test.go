package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(dir, "sheet_music"))
	require.NoError(t, err)

	path, err := store.Save(context.Background(), "a.pdf", strings.NewReader("notes"))
	require.NoError(t, err)

	f, err := store.Open(path)
	require.NoError(t, err)
	body, _ := io.ReadAll(f)
	_ = f.Close()
	assert.Equal(t, "notes", string(body))

	require.NoError(t, store.Delete(context.Background(), path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(context.Background(), path))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../escape.pdf", strings.NewReader("x"))
	assert.Error(t, err)
}

type fakeObjects struct {
	putKey    string
	deleteKey string
	putErr    error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putKey = aws.ToString(in.Key)
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteKey = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageRoundTrip(t *testing.T) {
	fake := &fakeObjects{}
	store := newS3Storage(fake, "lessons", "/sheet_music/")

	path, err := store.Save(context.Background(), "b.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "s3://lessons/sheet_music/b.png", path)
	assert.Equal(t, "sheet_music/b.png", fake.putKey)

	require.NoError(t, store.Delete(context.Background(), path))
	assert.Equal(t, "sheet_music/b.png", fake.deleteKey)

	assert.Error(t, store.Delete(context.Background(), "s3://other/x.png"))
}

func TestS3StorageWrapsPutFailure(t *testing.T) {
	store := newS3Storage(&fakeObjects{putErr: errors.New("denied")}, "lessons", "")
	_, err := store.Save(context.Background(), "c.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
