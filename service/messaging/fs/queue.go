// Package fs implements messaging.Queue as a directory inbox on any afs
// storage. Producers drop JSON files into pending; the consumer claims the
// oldest file by moving it to processing.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/internal/idgen"
	"github.com/viant/crier/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateFailed     MessageState = "failed"
)

// Message is a persisted envelope.
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	Retries   int          `json:"retries"`

	name      string
	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack removes the claimed file.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrAlreadyProcessed
	}
	m.processed = true
	return m.queue.fs.Delete(context.Background(), url.Join(m.queue.processingDir, m.name))
}

// Nack returns the message to pending, or to failed once MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return messaging.ErrAlreadyProcessed
	}
	m.processed = true
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	dest := m.queue.pendingDir
	m.State = MessageStatePending
	if m.Retries > m.queue.config.MaxRetries {
		dest = m.queue.failedDir
		m.State = MessageStateFailed
	}
	ctx := context.Background()
	if err := m.queue.write(ctx, url.Join(dest, m.name), m); err != nil {
		return err
	}
	return m.queue.fs.Delete(ctx, url.Join(m.queue.processingDir, m.name))
}

// QueueConfig holds configuration for filesystem queue
type QueueConfig struct {
	BasePath     string
	MaxRetries   int
	PollInterval time.Duration
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() QueueConfig {
	return QueueConfig{
		BasePath:     "/tmp/crier/inbox",
		MaxRetries:   3,
		PollInterval: 500 * time.Millisecond,
	}
}

// Queue implements a filesystem-based messaging.Queue
type Queue[T any] struct {
	fs            afs.Service
	config        QueueConfig
	pendingDir    string
	processingDir string
	failedDir     string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue
func NewQueue[T any](fs afs.Service, config QueueConfig) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	base := url.Normalize(config.BasePath, file.Scheme)
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(base, "pending"),
		processingDir: url.Join(base, "processing"),
		failedDir:     url.Join(base, "failed"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.failedDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish writes a new message into the pending directory
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
	}
	// zero padded nanos keep lexical order equal to arrival order
	name := fmt.Sprintf("%020d-%s.json", now.UnixNano(), message.ID)
	return q.write(ctx, url.Join(q.pendingDir, name), message)
}

// Consume polls the pending directory until a message can be claimed.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()
	for {
		message, err := q.claim(ctx)
		if err != nil {
			return nil, err
		}
		if message != nil {
			return message, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Pending returns the number of unclaimed messages.
func (q *Queue[T]) Pending(ctx context.Context) (int, error) {
	files, err := q.files(ctx, q.pendingDir)
	return len(files), err
}

// Failed returns the number of messages that exhausted their retries.
func (q *Queue[T]) Failed(ctx context.Context) (int, error) {
	files, err := q.files(ctx, q.failedDir)
	return len(files), err
}

func (q *Queue[T]) claim(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	files, err := q.files(ctx, q.pendingDir)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	obj := files[0]
	data, err := q.fs.DownloadWithURL(ctx, obj.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", obj.URL(), err)
	}
	message := &Message[T]{}
	if err := json.Unmarshal(data, message); err != nil {
		if mvErr := q.fs.Move(ctx, obj.URL(), url.Join(q.failedDir, obj.Name())); mvErr != nil {
			return nil, mvErr
		}
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", obj.URL(), err)
	}
	message.name = obj.Name()
	message.queue = q
	message.State = MessageStateProcessing
	if err := q.write(ctx, url.Join(q.processingDir, obj.Name()), message); err != nil {
		return nil, err
	}
	if err := q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to delete message from pending directory: %w", err)
	}
	return message, nil
}

func (q *Queue[T]) files(ctx context.Context, dir string) ([]storage.Object, error) {
	objects, err := q.fs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var ret []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			ret = append(ret, obj)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name() < ret[j].Name() })
	return ret, nil
}

func (q *Queue[T]) write(ctx context.Context, URL string, message *Message[T]) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
