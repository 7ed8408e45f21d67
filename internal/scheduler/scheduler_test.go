package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/config"
	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/store"
)

type fakeDistributions struct {
	stalled []models.Distribution
	updated []uuid.UUID
}

func (f *fakeDistributions) Create(context.Context, *models.Distribution) error { return nil }

func (f *fakeDistributions) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Distribution, error) {
	return nil, store.ErrNotFound
}

func (f *fakeDistributions) Update(_ context.Context, distribution *models.Distribution) error {
	f.updated = append(f.updated, distribution.ID)
	return nil
}

func (f *fakeDistributions) List(context.Context, store.DistributionFilter) ([]models.Distribution, error) {
	return nil, nil
}

func (f *fakeDistributions) ListStalled(context.Context, time.Time, int) ([]models.Distribution, error) {
	return f.stalled, nil
}

type recordingQueue struct {
	enqueued []uuid.UUID
}

func (q *recordingQueue) Enqueue(_ context.Context, distribution *models.Distribution) error {
	q.enqueued = append(q.enqueued, distribution.ID)
	return nil
}

func stalledDistribution(attempts int, age time.Duration) models.Distribution {
	return models.Distribution{
		ID:             uuid.New(),
		SubscriptionID: uuid.New(),
		EventID:        uuid.New(),
		Status:         models.StatusPendingRetry,
		Attempts:       attempts,
		UpdatedAt:      time.Now().UTC().Add(-age),
	}
}

func TestSweepRespectsPerAttemptWindow(t *testing.T) {
	// Both records are past the shortest window, but the second one is
	// on its third attempt and has not waited out its five minutes yet.
	due := stalledDistribution(1, 2*time.Minute)
	notYet := stalledDistribution(2, 2*time.Minute)

	distributions := &fakeDistributions{stalled: []models.Distribution{due, notYet}}
	q := &recordingQueue{}
	s := New(&config.SchedulerConfig{PollIntervalSeconds: 60, BatchSize: 100}, distributions, q, zap.NewNop())

	s.sweep()

	require.Len(t, q.enqueued, 1)
	assert.Equal(t, due.ID, q.enqueued[0])
	require.Len(t, distributions.updated, 1)
	assert.Equal(t, due.ID, distributions.updated[0])
}

func TestSweepHealsOrphanedPendingRecords(t *testing.T) {
	// A record created but never enqueued stays pending with zero
	// attempts. The sweep puts it on the queue once it has aged past
	// the shortest window.
	orphan := stalledDistribution(0, 90*time.Second)
	orphan.Status = models.StatusPending

	distributions := &fakeDistributions{stalled: []models.Distribution{orphan}}
	q := &recordingQueue{}
	s := New(&config.SchedulerConfig{PollIntervalSeconds: 60, BatchSize: 100}, distributions, q, zap.NewNop())

	s.sweep()

	require.Len(t, q.enqueued, 1)
	assert.Equal(t, orphan.ID, q.enqueued[0])
}

func TestSweepSkipsFreshRecords(t *testing.T) {
	fresh := stalledDistribution(1, 10*time.Second)

	distributions := &fakeDistributions{stalled: []models.Distribution{fresh}}
	q := &recordingQueue{}
	s := New(&config.SchedulerConfig{PollIntervalSeconds: 60, BatchSize: 100}, distributions, q, zap.NewNop())

	s.sweep()

	assert.Empty(t, q.enqueued)
	assert.Empty(t, distributions.updated)
}
