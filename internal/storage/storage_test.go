package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	for _, ok := range []string{"papers/abc.pdf", "profile_photos/x.jpg", "notes/a..b.txt"} {
		k, err := CleanKey(ok)
		assert.NoError(t, err, ok)
		assert.Equal(t, ok, k)
	}
	for _, bad := range []string{"", "/etc/passwd", "../secret", "papers/../../x", `..\x`, "C:/x", `\root`} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, l.Ping(ctx))

	body := "hello, syllabus"
	require.NoError(t, l.Put(ctx, "syllabus/s1.txt", strings.NewReader(body), int64(len(body)), "text/plain"))

	obj, err := l.Get(ctx, "syllabus/s1.txt")
	require.NoError(t, err)
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.EqualValues(t, len(body), obj.Size)
	assert.Contains(t, obj.ContentType, "text/plain")

	require.NoError(t, l.Delete(ctx, "syllabus/s1.txt"))
	_, err = l.Get(ctx, "syllabus/s1.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, l.Delete(ctx, "syllabus/s1.txt"), ErrObjectNotFound)
}

func TestLocalRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = l.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = l.Get(ctx, "/etc/hosts")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalGetDirectoryIsNotFound(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, l.Put(ctx, "papers/p.pdf", strings.NewReader("%PDF"), 4, "application/pdf"))

	_, err = l.Get(ctx, "papers")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Settings{Driver: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	s, err = Open(ctx, Settings{Driver: "s3", Bucket: "b", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.IsType(t, &S3{}, s)

	_, err = Open(ctx, Settings{Driver: "ftp"})
	assert.Error(t, err)
}
