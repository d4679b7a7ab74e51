package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/service"
)

type countingProcessor struct {
	mu      sync.Mutex
	calls   int
	pending int
}

func (p *countingProcessor) ProcessNext(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.pending > 0 {
		p.pending--
		return true, nil
	}
	return false, nil
}

func TestWorker_DrainsQueueAndStops(t *testing.T) {
	processor := &countingProcessor{pending: 3}
	w := NewWorker(processor, 10*time.Millisecond)

	w.Start(context.Background())
	assert.Eventually(t, func() bool {
		processor.mu.Lock()
		defer processor.mu.Unlock()
		return processor.pending == 0
	}, time.Second, 10*time.Millisecond)
	w.Stop()

	processor.mu.Lock()
	defer processor.mu.Unlock()
	assert.GreaterOrEqual(t, processor.calls, 4)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	processor := &countingProcessor{}
	w := NewWorker(processor, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

// MockJobQueue mocks the index job repository
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) ClaimPending(ctx context.Context) (*domain.IndexJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexJob), args.Error(1)
}

func (m *MockJobQueue) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockJobQueue) MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr string, maxRetries int) error {
	return m.Called(ctx, jobID, jobErr, maxRetries).Error(0)
}

// MockContentReader mocks stored topic content
type MockContentReader struct {
	mock.Mock
}

func (m *MockContentReader) GetContent(ctx context.Context, topicID uuid.UUID) (string, error) {
	args := m.Called(ctx, topicID)
	return args.String(0), args.Error(1)
}

// MockIndexer mocks the indexer service
type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexTopic(ctx context.Context, topicID uuid.UUID, extractedText string) (*service.IndexResult, error) {
	args := m.Called(ctx, topicID, extractedText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IndexResult), args.Error(1)
}

func TestIndexProcessor_EmptyQueue(t *testing.T) {
	mockQueue := new(MockJobQueue)
	p := NewIndexProcessor(mockQueue, new(MockContentReader), new(MockIndexer))

	mockQueue.On("ClaimPending", mock.Anything).Return(nil, nil)

	ok, err := p.ProcessNext(context.Background())

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexProcessor_ProcessesJob(t *testing.T) {
	mockQueue := new(MockJobQueue)
	mockContents := new(MockContentReader)
	mockIndexer := new(MockIndexer)
	p := NewIndexProcessor(mockQueue, mockContents, mockIndexer)

	topicID := uuid.New()
	job := &domain.IndexJob{ID: uuid.New(), TopicID: topicID, Status: domain.IndexJobStatusProcessing}

	mockQueue.On("ClaimPending", mock.Anything).Return(job, nil)
	mockContents.On("GetContent", mock.Anything, topicID).Return("extracted text", nil)
	mockIndexer.On("IndexTopic", mock.Anything, topicID, "extracted text").
		Return(&service.IndexResult{TopicID: topicID, Generation: 1, IndexedCount: 2}, nil)
	mockQueue.On("MarkCompleted", mock.Anything, job.ID).Return(nil)

	ok, err := p.ProcessNext(context.Background())

	assert.NoError(t, err)
	assert.True(t, ok)
	mockQueue.AssertExpectations(t)
}

func TestIndexProcessor_FailureMarksFailedWithRetryBound(t *testing.T) {
	mockQueue := new(MockJobQueue)
	mockContents := new(MockContentReader)
	mockIndexer := new(MockIndexer)
	p := NewIndexProcessor(mockQueue, mockContents, mockIndexer)

	topicID := uuid.New()
	job := &domain.IndexJob{ID: uuid.New(), TopicID: topicID}

	mockQueue.On("ClaimPending", mock.Anything).Return(job, nil)
	mockContents.On("GetContent", mock.Anything, topicID).Return("text", nil)
	mockIndexer.On("IndexTopic", mock.Anything, topicID, "text").
		Return(nil, errors.New("embedding unavailable"))
	mockQueue.On("MarkFailed", mock.Anything, job.ID, "embedding unavailable", MaxRetries).Return(nil)

	ok, err := p.ProcessNext(context.Background())

	assert.NoError(t, err)
	assert.True(t, ok)
	mockQueue.AssertExpectations(t)
	mockQueue.AssertNotCalled(t, "MarkCompleted")
}
