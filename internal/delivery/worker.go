package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/config"
	"github.com/marminbh/event-broker/internal/consumer"
	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/rabbitmq"
)

// Worker consumes distribution messages from the queue and hands each
// one to the sender. Messages are processed independently; many
// distributions may be in flight at once across worker instances.
type Worker struct {
	queueCfg    *config.QueueConfig
	workerCfg   *config.WorkerConfig
	conn        *rabbitmq.Connection
	sender      *Sender
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

// NewWorker creates a delivery worker.
func NewWorker(
	queueCfg *config.QueueConfig,
	workerCfg *config.WorkerConfig,
	conn *rabbitmq.Connection,
	sender *Sender,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		queueCfg:    queueCfg,
		workerCfg:   workerCfg,
		conn:        conn,
		sender:      sender,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("event-broker-worker-%d", time.Now().Unix()),
	}
}

// Start begins consuming from the distribution queue.
func (w *Worker) Start() error {
	if w.queueCfg.DistributionQueue == "" {
		return fmt.Errorf("distribution queue is required")
	}

	if err := w.startConsuming(); err != nil {
		return err
	}

	w.started = true
	w.logger.Info("Delivery worker started",
		zap.String("queue", w.queueCfg.DistributionQueue),
		zap.String("consumer_tag", w.consumerTag),
		zap.Int("prefetch_count", w.workerCfg.PrefetchCount),
	)
	return nil
}

func (w *Worker) startConsuming() error {
	if err := w.conn.SetQoS(w.workerCfg.PrefetchCount); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	messages, err := w.conn.Consume(w.queueCfg.DistributionQueue, w.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", w.queueCfg.DistributionQueue, err)
	}

	go w.processMessages(messages)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.logger.Info("Stopping delivery worker", zap.String("consumer_tag", w.consumerTag))
	w.cancel()

	if err := w.conn.CancelConsumer(w.consumerTag); err != nil {
		w.logger.Error("Failed to cancel consumer",
			zap.String("consumer_tag", w.consumerTag),
			zap.Error(err),
		)
	}
	return nil
}

func (w *Worker) processMessages(messages <-chan amqp.Delivery) {
	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Worker context cancelled, stopping message processing")
			return
		case msg, ok := <-messages:
			if !ok {
				w.logger.Warn("Message channel closed, attempting to restart consumer",
					zap.String("queue", w.queueCfg.DistributionQueue),
				)
				w.restartConsuming()
				return
			}
			consumer.ProcessMessage(w.logger, w.queueCfg.DistributionQueue, msg, w)
		}
	}
}

// restartConsuming retries until consuming resumes or the worker is
// stopped. The connection wrapper reconnects underneath; this only has
// to wait for it.
func (w *Worker) restartConsuming() {
	for w.started {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		time.Sleep(2 * time.Second)

		if !w.conn.IsHealthy() {
			continue
		}

		if err := w.startConsuming(); err != nil {
			w.logger.Error("Failed to restart consuming, will retry",
				zap.String("queue", w.queueCfg.DistributionQueue),
				zap.Error(err),
			)
			time.Sleep(5 * time.Second)
			continue
		}

		w.logger.Info("Consumer restarted after channel close",
			zap.String("queue", w.queueCfg.DistributionQueue),
		)
		return
	}
}

// HandleMessage implements consumer.MessageHandler.
func (w *Worker) HandleMessage(decodedMessage []byte) error {
	var msg models.DistributionMessage
	if err := json.Unmarshal(decodedMessage, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal distribution message: %w", err)
	}

	return w.sender.Send(w.ctx, msg)
}
