package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/samplesearch/internal/config"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := aws.ToString(in.Prefix)
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestLocalStoreSaveOpenList(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "bundles")
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	require.NoError(t, store.Save(ctx, "b.json", strings.NewReader("first"), 5))
	require.NoError(t, store.Save(ctx, "b.json", strings.NewReader("second"), 6))
	require.NoError(t, store.Save(ctx, "a.wav", strings.NewReader("x"), 1))

	rc, err := store.Open(ctx, "b.json")
	require.NoError(t, err)
	require.Equal(t, "second", readAll(t, rc))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a.wav", "b.json"}, keys)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestLocalStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewLocal(t.TempDir())

	_, err := store.Open(ctx, "missing.json")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	err = store.Save(ctx, "../escape.json", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	missing := NewLocal(filepath.Join(t.TempDir(), "nope"))
	keys, err := missing.List(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	_, err = New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	mock.objects["other/ignored.json"] = []byte("x")
	store := NewS3(mock, "bucket", "/cache/")
	require.Equal(t, "s3", store.Type())

	require.NoError(t, store.Save(ctx, "laion_larger_clap_music.json", strings.NewReader("{}"), 2))
	require.Contains(t, mock.objects, "cache/laion_larger_clap_music.json")

	rc, err := store.Open(ctx, "laion_larger_clap_music.json")
	require.NoError(t, err)
	require.Equal(t, "{}", readAll(t, rc))

	_, err = store.Open(ctx, "missing.json")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"laion_larger_clap_music.json"}, keys)
}
