package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/store"
)

const (
	testPublisher = "Place"
	testEventType = "Thing"
	testSchema    = `{"properties":{"prop1":{"type":"integer"}}}`
	testPayload   = `{"prop1":1}`
)

type fakePublishers struct {
	publisher     *models.Publisher
	requestedCode string
}

func (f *fakePublishers) GetPublisher(_ context.Context, code string) (*models.Publisher, error) {
	f.requestedCode = code
	if f.publisher == nil {
		return nil, store.ErrNotFound
	}
	return f.publisher, nil
}

func (f *fakePublishers) UpsertPublisher(context.Context, *models.Publisher) error {
	return nil
}

type fakeEvents struct {
	stored []models.Event
}

func (f *fakeEvents) Store(_ context.Context, event *models.Event) error {
	f.stored = append(f.stored, *event)
	return nil
}

func (f *fakeEvents) Get(_ context.Context, id uuid.UUID) (*models.Event, error) {
	for i := range f.stored {
		if f.stored[i].ID == id {
			return &f.stored[i], nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeSubscriptions struct {
	subscriptions []models.Subscription
}

func (f *fakeSubscriptions) GetSubscriptionsForEvent(context.Context, string, string) ([]models.Subscription, error) {
	return f.subscriptions, nil
}

func (f *fakeSubscriptions) GetSubscription(_ context.Context, _, _ string, id uuid.UUID) (*models.Subscription, error) {
	for i := range f.subscriptions {
		if f.subscriptions[i].ID == id {
			return &f.subscriptions[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSubscriptions) UpsertSubscription(context.Context, *models.Subscription) error {
	return nil
}

type fakeDistributions struct {
	created []models.Distribution
}

func (f *fakeDistributions) Create(_ context.Context, distribution *models.Distribution) error {
	f.created = append(f.created, *distribution)
	return nil
}

func (f *fakeDistributions) Get(_ context.Context, id, subscriptionID uuid.UUID) (*models.Distribution, error) {
	for i := range f.created {
		if f.created[i].ID == id && f.created[i].SubscriptionID == subscriptionID {
			return &f.created[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeDistributions) Update(context.Context, *models.Distribution) error {
	return nil
}

func (f *fakeDistributions) List(context.Context, store.DistributionFilter) ([]models.Distribution, error) {
	return f.created, nil
}

func (f *fakeDistributions) ListStalled(context.Context, time.Time, int) ([]models.Distribution, error) {
	return nil, nil
}

// fakeQueue records enqueued distributions and checks each record was
// created in the store before being enqueued.
type fakeQueue struct {
	distributions *fakeDistributions
	enqueued      []models.Distribution
	failWith      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, distribution *models.Distribution) error {
	if f.failWith != nil {
		return f.failWith
	}
	if f.distributions != nil {
		if _, err := f.distributions.Get(ctx, distribution.ID, distribution.SubscriptionID); err != nil {
			return fmt.Errorf("enqueued before create: %w", err)
		}
	}
	f.enqueued = append(f.enqueued, *distribution)
	return nil
}

type ingestFixture struct {
	publishers    *fakePublishers
	events        *fakeEvents
	subscriptions *fakeSubscriptions
	distributions *fakeDistributions
	queue         *fakeQueue
	service       *Service
}

func newFixture() *ingestFixture {
	f := &ingestFixture{
		publishers: &fakePublishers{
			publisher: &models.Publisher{
				Code: testPublisher,
				Events: []models.EventDefinition{
					{PublisherCode: testPublisher, Name: testEventType, Schema: testSchema},
				},
			},
		},
		events:        &fakeEvents{},
		subscriptions: &fakeSubscriptions{},
		distributions: &fakeDistributions{},
	}
	f.queue = &fakeQueue{distributions: f.distributions}
	f.service = NewService(f.publishers, f.events, f.subscriptions, f.distributions, f.queue, zap.NewNop())
	return f
}

func requireRequestError(t *testing.T, err error, code string) *InvalidRequestError {
	t.Helper()
	var requestErr *InvalidRequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, code, requestErr.Code)
	return requestErr
}

func TestIngestRejectsNonJSONPayload(t *testing.T) {
	f := newFixture()

	_, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte("not-json"))

	requireRequestError(t, err, CodePayloadNotJSON)
	assert.Empty(t, f.events.stored)
}

func TestIngestRejectsUnknownPublisher(t *testing.T) {
	f := newFixture()
	f.publishers.publisher = nil

	_, err := f.service.Ingest(context.Background(), "nowhere", testEventType, []byte(testPayload))

	requireRequestError(t, err, CodeSourceNotFound)
	assert.Equal(t, "nowhere", f.publishers.requestedCode)
}

func TestIngestRejectsUnknownEventType(t *testing.T) {
	f := newFixture()
	f.publishers.publisher.Events = nil

	_, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte(testPayload))

	requireRequestError(t, err, CodeEventNotFound)
}

func TestIngestMatchesEventTypeCaseInsensitively(t *testing.T) {
	f := newFixture()

	_, err := f.service.Ingest(context.Background(), testPublisher, "tHING", []byte(testPayload))

	require.NoError(t, err)
}

func TestIngestRejectsPayloadFailingSchemaWithEveryFailure(t *testing.T) {
	f := newFixture()
	f.publishers.publisher.Events[0].Schema = `{
		"properties": {
			"prop1": {"type": "integer"},
			"prop2": {"type": "string"}
		},
		"required": ["prop1", "prop2"]
	}`

	_, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte(`{"prop1":true}`))

	requestErr := requireRequestError(t, err, CodePayloadInvalid)
	assert.Contains(t, requestErr.Message, "prop1")
	assert.Contains(t, requestErr.Message, "prop2")
	assert.Empty(t, f.events.stored)
}

func TestIngestStoresEventWithGeneratedID(t *testing.T) {
	f := newFixture()

	eventID, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte(testPayload))

	require.NoError(t, err)
	require.Len(t, f.events.stored, 1)

	stored := f.events.stored[0]
	assert.Equal(t, eventID, stored.ID)
	assert.Equal(t, testPublisher, stored.PublisherCode)
	assert.Equal(t, testEventType, stored.EventType)
	assert.Equal(t, testPayload, stored.Payload)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{8}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{12}$`), stored.ID.String())
}

func TestIngestFansOutOneDistributionPerSubscription(t *testing.T) {
	f := newFixture()
	for i := 0; i < 3; i++ {
		f.subscriptions.subscriptions = append(f.subscriptions.subscriptions, models.Subscription{
			ID:            uuid.New(),
			PublisherCode: testPublisher,
			EventType:     testEventType,
			EndpointURL:   fmt.Sprintf("https://subscriber-%d.example.com/hook", i),
		})
	}

	eventID, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte(testPayload))
	require.NoError(t, err)

	require.Len(t, f.distributions.created, 3)
	require.Len(t, f.queue.enqueued, 3)

	seen := map[uuid.UUID]bool{}
	for i, distribution := range f.distributions.created {
		assert.Equal(t, eventID, distribution.EventID)
		assert.Equal(t, models.StatusPending, distribution.Status)
		assert.Zero(t, distribution.Attempts)
		assert.Equal(t, distribution, f.queue.enqueued[i])
		seen[distribution.SubscriptionID] = true
	}
	for _, subscription := range f.subscriptions.subscriptions {
		assert.True(t, seen[subscription.ID], "missing distribution for subscription %s", subscription.ID)
	}
}

func TestIngestWithNoSubscriptionsCreatesNoDistributions(t *testing.T) {
	f := newFixture()

	_, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte(testPayload))

	require.NoError(t, err)
	assert.Empty(t, f.distributions.created)
	assert.Empty(t, f.queue.enqueued)
}

func TestIngestSurfacesEnqueueFailure(t *testing.T) {
	f := newFixture()
	f.subscriptions.subscriptions = []models.Subscription{{ID: uuid.New()}}
	f.queue.failWith = errors.New("broker unavailable")

	_, err := f.service.Ingest(context.Background(), testPublisher, testEventType, []byte(testPayload))

	require.Error(t, err)
	var requestErr *InvalidRequestError
	assert.False(t, errors.As(err, &requestErr), "infrastructure failures must not be request errors")
	// The pending record stays behind for the scheduler to sweep.
	assert.Len(t, f.distributions.created, 1)
}
