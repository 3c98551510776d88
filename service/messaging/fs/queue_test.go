package fs

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type testPayload struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func TestQueue(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "queue-test")
	if err != nil {
		t.Fatalf("failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	fileService := afs.New()
	ctx := context.Background()

	config := Config{
		BaseURL:    tempDir,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	}
	queue, err := NewQueue[testPayload](fileService, config)
	assert.NoError(t, err)
	assert.NotNil(t, queue)

	for _, location := range []string{queue.pendingURL, queue.processingURL, queue.dlqURL} {
		exists, err := fileService.Exists(ctx, location)
		assert.NoError(t, err)
		assert.True(t, exists, location)
	}

	// Empty queue yields no message.
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message)

	err = queue.Publish(ctx, &testPayload{ID: "test-1", Message: "hello"})
	assert.NoError(t, err)
	size, err := queue.Size(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, size)

	// Consuming stages the entry out of pending.
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	if !assert.NotNil(t, message) {
		return
	}
	assert.Equal(t, "test-1", message.T().ID)
	size, err = queue.Size(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, size)

	// Ack removes the staged entry.
	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
}

func TestQueue_NackRequeuesThenParks(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "queue-test")
	if err != nil {
		t.Fatalf("failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	fileService := afs.New()
	ctx := context.Background()

	queue, err := NewQueue[testPayload](fileService, Config{
		BaseURL:    tempDir,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	assert.NoError(t, err)

	err = queue.Publish(ctx, &testPayload{ID: "retry-1"})
	assert.NoError(t, err)

	// First nack re-queues the message.
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(fmt.Errorf("processing failed")))
	size, err := queue.Size(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, size)

	// Second nack exceeds MaxRetries and parks the entry in the DLQ.
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(fmt.Errorf("processing failed again")))
	size, err = queue.Size(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, size)

	parked, err := fileService.List(ctx, queue.dlqURL)
	assert.NoError(t, err)
	files := 0
	for _, object := range parked {
		if !object.IsDir() {
			files++
		}
	}
	assert.Equal(t, 1, files)
}

func TestQueue_OrderedConsumption(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "queue-test")
	if err != nil {
		t.Fatalf("failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	queue, err := NewQueue[testPayload](afs.New(), Config{BaseURL: tempDir, MaxRetries: 1})
	assert.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err = queue.Publish(ctx, &testPayload{ID: fmt.Sprintf("msg-%d", i)})
		assert.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		message, err := queue.Consume(ctx)
		assert.NoError(t, err)
		if !assert.NotNil(t, message) {
			return
		}
		assert.Equal(t, fmt.Sprintf("msg-%d", i), message.T().ID)
		assert.NoError(t, message.Ack())
	}
}
