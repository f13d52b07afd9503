package service

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/events"
	"expense-tracker/internal/repository/sqlite"
	"expense-tracker/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUserService(db *sql.DB) UserService {
	return NewUserService(sqlite.NewUserRepository(db), UserOptions{BcryptCost: bcrypt.MinCost})
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func signUp(t *testing.T, users UserService, username string) *domain.User {
	t.Helper()
	user, err := users.SignUp(context.Background(), SignUpInput{
		Username: username,
		Name:     "Name " + username,
		Password: "secret-" + username,
		Gender:   "male",
	})
	if err != nil {
		t.Fatalf("sign up %s: %v", username, err)
	}
	return user
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[opts.Key] = data
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (m *memoryStorage) ListObjects(_ context.Context, _ string, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	now := time.Now()
	for key, data := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: &now})
		}
	}
	return out, nil
}

func (m *memoryStorage) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://" + bucket + ".example.test/" + key + "?expires=" + expires.String(), nil
}
