package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/quorum/service/messaging"
)

// Config holds configuration for the filesystem queue.
type Config struct {
	BaseURL    string        // base location for queue entries
	MaxRetries int           // maximum number of retry attempts
	RetryDelay time.Duration // delay before a nacked message is re-queued
}

// DefaultConfig returns a default queue configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "/tmp/quorum/queue",
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

type envelope[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message implements messaging.Message for the filesystem queue.
type Message[T any] struct {
	envelope  envelope[T]
	location  string
	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.envelope.Data
}

// Ack removes the message from the processing location.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	return m.queue.fs.Delete(context.Background(), m.location)
}

// Nack re-queues the message until MaxRetries is reached, then parks it in
// the dead letter location.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.envelope.Retries++

	ctx := context.Background()
	if dErr := m.queue.fs.Delete(ctx, m.location); dErr != nil {
		return dErr
	}
	if m.envelope.Retries > m.queue.config.MaxRetries {
		return m.queue.upload(ctx, m.queue.dlqURL, &m.envelope)
	}
	time.Sleep(m.queue.config.RetryDelay)
	return m.queue.upload(ctx, m.queue.pendingURL, &m.envelope)
}

// Queue implements a filesystem-based messaging.Queue. Entries survive
// process restarts, which makes the queue usable as a durable fan-out log.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingURL    string
	processingURL string
	dlqURL        string
	mu            sync.Mutex
}

// NewQueue creates a filesystem queue rooted at config.BaseURL.
func NewQueue[T any](fileService afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("queue base URL was empty")
	}
	q := &Queue[T]{
		fs:            fileService,
		config:        config,
		pendingURL:    url.Join(config.BaseURL, "pending"),
		processingURL: url.Join(config.BaseURL, "processing"),
		dlqURL:        url.Join(config.BaseURL, "dlq"),
	}
	ctx := context.Background()
	for _, location := range []string{q.pendingURL, q.processingURL, q.dlqURL} {
		if err := q.fs.Create(ctx, location, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create queue location %s: %w", location, err)
		}
	}
	return q, nil
}

func (q *Queue[T]) upload(ctx context.Context, baseURL string, env *envelope[T]) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", env.ID, err)
	}
	location := url.Join(baseURL, env.ID+".json")
	return q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data))
}

// Publish adds a new item to the queue.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	env := &envelope[T]{
		ID:        fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.New().String()[:8]),
		Data:      *t,
		CreatedAt: time.Now(),
	}
	return q.upload(ctx, q.pendingURL, env)
}

// Consume retrieves the oldest pending item, moving it to the processing
// location so that concurrent consumers do not observe it twice.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	names := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		names = append(names, object.Name())
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	source := url.Join(q.pendingURL, names[0])
	data, err := q.fs.DownloadWithURL(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", source, err)
	}
	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", source, err)
	}

	msg := &Message[T]{envelope: env, queue: q}
	msg.location = url.Join(q.processingURL, names[0])
	if err := q.fs.Upload(ctx, msg.location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to stage message %s: %w", source, err)
	}
	if err := q.fs.Delete(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to remove pending message %s: %w", source, err)
	}
	return msg, nil
}

// Size returns the number of pending messages.
func (q *Queue[T]) Size(ctx context.Context) (int, error) {
	objects, err := q.fs.List(ctx, q.pendingURL)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, object := range objects {
		if !object.IsDir() {
			count++
		}
	}
	return count, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
