package consumer

import (
	"encoding/base64"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MessageHandler processes one decoded queue message. A nil return ACKs
// the message; an error NACKs it without requeue.
type MessageHandler interface {
	HandleMessage(decodedMessage []byte) error
}

// ProcessMessage processes a RabbitMQ delivery:
// base64-decodes the body, hands it to the handler, then ACKs on
// success or NACKs (no requeue) on failure. Redelivery of failed
// distributions is owned by the retry scheduler, not the broker.
func ProcessMessage(logger *zap.Logger, queue string, msg amqp.Delivery, handler MessageHandler) {
	decoded, err := base64.StdEncoding.DecodeString(string(msg.Body))
	if err != nil {
		logger.Error("Failed to decode base64 message",
			zap.String("queue", queue),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
		reject(logger, msg)
		return
	}

	if err := handler.HandleMessage(decoded); err != nil {
		logger.Error("Failed to process message",
			zap.String("queue", queue),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
		reject(logger, msg)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("Failed to ack message",
			zap.String("queue", queue),
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}

func reject(logger *zap.Logger, msg amqp.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		logger.Error("Failed to nack message",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.Error(err),
		)
	}
}
