// Package backup snapshots the SQLite database, encrypts it with a
// passphrase and keeps the result in S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/savesmart/internal/receipt"
)

// Prefix is the object key prefix backups are stored under.
const Prefix = "backups/"

var ErrNotConfigured = errors.New("backup storage not configured")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Object describes a stored backup.
type Object struct {
	Key       string
	Size      int64
	CreatedAt time.Time
}

// Manager creates, lists, prunes and restores encrypted backups.
type Manager struct {
	client     s3Client
	bucket     string
	passphrase string
	now        func() time.Time
	logger     *slog.Logger
}

// NewManager returns a Manager using the same bucket settings as receipts.
func NewManager(cfg receipt.Config, passphrase string, logger *slog.Logger) *Manager {
	m := &Manager{bucket: cfg.Bucket, passphrase: passphrase, now: time.Now, logger: logger}
	if cfg.Configured() {
		m.client = receipt.NewS3Client(cfg)
	}
	return m
}

func (m *Manager) ready() error {
	if m.client == nil {
		return ErrNotConfigured
	}
	if m.passphrase == "" {
		return errors.New("backup passphrase is required")
	}
	return nil
}

// Run snapshots db and uploads it, returning the object key.
func (m *Manager) Run(ctx context.Context, db *sql.DB) (string, error) {
	if err := m.ready(); err != nil {
		return "", err
	}

	snapshot, err := Snapshot(ctx, db)
	if err != nil {
		return "", err
	}
	sealed, err := Seal(snapshot, m.passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	key := Prefix + fmt.Sprintf("savesmart-%s.db.enc", m.now().UTC().Format("2006-01-02T150405Z"))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	m.logger.Info("backup uploaded", "key", key, "bytes", len(sealed))
	return key, nil
}

// List returns stored backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	if m.client == nil {
		return nil, ErrNotConfigured
	}

	var objects []Object
	input := &s3.ListObjectsV2Input{Bucket: aws.String(m.bucket), Prefix: aws.String(Prefix)}
	for {
		out, err := m.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range out.Contents {
			o := Object{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				o.CreatedAt = *obj.LastModified
			}
			objects = append(objects, o)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	// keys embed a sortable timestamp
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Prune deletes all but the newest keep backups and reports how many went.
func (m *Manager) Prune(ctx context.Context, keep int) (int, error) {
	objects, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(objects) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, obj := range objects[keep:] {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(obj.Key),
		}); err != nil {
			m.logger.Warn("delete old backup", "key", obj.Key, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Restore downloads key, decrypts and validates it, and writes it to dbPath.
// The server must not be running against dbPath.
func (m *Manager) Restore(ctx context.Context, key, dbPath string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if !strings.HasPrefix(key, Prefix) {
		key = Prefix + key
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plaintext, err := Open(sealed, m.passphrase)
	if err != nil {
		return err
	}

	tmp := dbPath + ".restore"
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(tmp)

	if err := checkIntegrity(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	m.logger.Info("backup restored", "key", key, "path", dbPath)
	return nil
}

// Snapshot returns a consistent copy of the database file.
func Snapshot(ctx context.Context, db *sql.DB) ([]byte, error) {
	dir, err := os.MkdirTemp("", "savesmart-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func checkIntegrity(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	return nil
}
