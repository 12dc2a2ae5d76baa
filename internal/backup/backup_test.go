package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/savesmart/internal/database"
	"github.com/dukerupert/savesmart/internal/receipt"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, _ := io.ReadAll(input.Body)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, input *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(input.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(m.objects[k])))})
	}
	return out, nil
}

func newTestManager(client *mockS3Client) *Manager {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Manager{
		client:     client,
		bucket:     "test",
		passphrase: "kedai runcit",
		now: func() time.Time {
			clock = clock.Add(time.Hour)
			return clock
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSealOpen(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 and then some pages")

	sealed, err := Seal(plaintext, "secret")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "SQLite format 3")

	got, err := Open(sealed, "secret")
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	again, err := Seal(plaintext, "secret")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "salt and nonce must differ per call")
}

func TestOpenRejects(t *testing.T) {
	sealed, err := Seal([]byte("data"), "secret")
	require.NoError(t, err)

	_, err = Open(sealed, "wrong")
	assert.Error(t, err)

	_, err = Open(sealed[:10], "secret")
	assert.ErrorIs(t, err, ErrCorrupt)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Open(tampered, "secret")
	assert.Error(t, err)
}

func TestRunAndRestore(t *testing.T) {
	ctx := context.Background()
	src, err := database.Open(":memory:")
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Exec(`INSERT INTO items (name, brand, unit, category) VALUES ('Kicap Manis', 'Habhal', 'bottle', 'Pantry')`)
	require.NoError(t, err)

	client := newMockS3()
	m := newTestManager(client)

	key, err := m.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "backups/savesmart-2026-03-01T100000Z.db.enc", key)
	require.Contains(t, client.objects, key)

	dbPath := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, m.Restore(ctx, strings.TrimPrefix(key, Prefix), dbPath))

	restored, err := database.Open(dbPath)
	require.NoError(t, err)
	defer restored.Close()

	var brand string
	require.NoError(t, restored.QueryRow(`SELECT brand FROM items WHERE name = 'Kicap Manis'`).Scan(&brand))
	assert.Equal(t, "Habhal", brand)
}

func TestRestoreWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	src, err := database.Open(":memory:")
	require.NoError(t, err)
	defer src.Close()

	client := newMockS3()
	m := newTestManager(client)
	key, err := m.Run(ctx, src)
	require.NoError(t, err)

	m.passphrase = "guess"
	dbPath := filepath.Join(t.TempDir(), "restored.db")
	assert.Error(t, m.Restore(ctx, key, dbPath))
	assert.NoFileExists(t, dbPath)
}

func TestRunUploadError(t *testing.T) {
	src, err := database.Open(":memory:")
	require.NoError(t, err)
	defer src.Close()

	client := newMockS3()
	client.putErr = errors.New("bucket gone")
	_, err = newTestManager(client).Run(context.Background(), src)
	assert.ErrorContains(t, err, "bucket gone")
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	client := newMockS3()
	client.objects["backups/savesmart-2026-01-01T000000Z.db.enc"] = []byte("a")
	client.objects["backups/savesmart-2026-02-01T000000Z.db.enc"] = []byte("b")
	client.objects["backups/savesmart-2026-03-01T000000Z.db.enc"] = []byte("c")
	client.objects["receipts/2026/03/x.jpg"] = []byte("r")
	m := newTestManager(client)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "backups/savesmart-2026-03-01T000000Z.db.enc", list[0].Key)
	assert.Equal(t, int64(1), list[0].Size)

	deleted, err := m.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Len(t, client.objects, 2)
	assert.Contains(t, client.objects, "backups/savesmart-2026-03-01T000000Z.db.enc")
	assert.Contains(t, client.objects, "receipts/2026/03/x.jpg")

	deleted, err = m.Prune(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestNotConfigured(t *testing.T) {
	ctx := context.Background()
	m := NewManager(receipt.Config{}, "secret", slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := m.Run(ctx, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = m.List(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, m.Restore(ctx, "x", "y"), ErrNotConfigured)

	m = newTestManager(newMockS3())
	m.passphrase = ""
	_, err = m.Run(ctx, nil)
	assert.ErrorContains(t, err, "passphrase")
}
