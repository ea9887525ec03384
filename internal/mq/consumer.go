package mq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"edupay/internal/models"
	"edupay/internal/repositories"
	"edupay/internal/services/settlement"
	"edupay/internal/services/wallet"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RefundEnvelope is the course-refund message body.
type RefundEnvelope struct {
	WalletData models.TransactionData `json:"walletData"`
	SourceID   string                 `json:"source_id"`
	Amount     int64                  `json:"amount"`
	UserID     string                 `json:"user_id"`
}

// RefundConsumer applies course refunds delivered by the course service:
// a wallet adjustment plus a payout reversal per message.
type RefundConsumer struct {
	conn       *Conn
	wallet     wallet.Service
	settlement settlement.Service
	events     repositories.ProcessedEventRepository
}

func NewRefundConsumer(conn *Conn, walletSvc wallet.Service, settlementSvc settlement.Service, events repositories.ProcessedEventRepository) *RefundConsumer {
	return &RefundConsumer{
		conn:       conn,
		wallet:     walletSvc,
		settlement: settlementSvc,
		events:     events,
	}
}

// Start binds the durable queue and consumes until the context ends.
// Messages are acknowledged only after both effects land; failures are
// requeued for redelivery.
func (c *RefundConsumer) Start(ctx context.Context) error {
	ch := c.conn.channel

	if _, err := ch.QueueDeclare(QueueCourseRefund, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(QueueCourseRefund, RoutingKeyCourseRefund, ExchangeCourseService, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.Consume(QueueCourseRefund, "edupay-refund", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	log.Printf("consuming messages from queue %s", QueueCourseRefund)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := c.handle(ctx, delivery); err != nil {
				log.Printf("refund message failed, requeueing: %v", err)
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					log.Printf("failed to nack delivery: %v", nackErr)
				}
				continue
			}
			if ackErr := delivery.Ack(false); ackErr != nil {
				log.Printf("failed to ack delivery: %v", ackErr)
			}
		}
	}
}

func (c *RefundConsumer) handle(ctx context.Context, delivery amqp.Delivery) error {
	var envelope RefundEnvelope
	if err := json.Unmarshal(delivery.Body, &envelope); err != nil {
		// A malformed body will never parse; requeueing it loops forever.
		log.Printf("dropping undecodable refund message: %v", err)
		return nil
	}

	claimed, err := c.events.MarkProcessed(messageKey(delivery), models.EventSourceQueue)
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("refund message %s already processed, acknowledging", delivery.MessageId)
		return nil
	}

	if err := c.apply(ctx, envelope); err != nil {
		if rbErr := c.events.Unmark(messageKey(delivery)); rbErr != nil {
			log.Printf("failed to release claim on message %s: %v", delivery.MessageId, rbErr)
		}
		return err
	}
	return nil
}

func (c *RefundConsumer) apply(ctx context.Context, envelope RefundEnvelope) error {
	if err := c.wallet.Apply(ctx, envelope.UserID, envelope.WalletData); err != nil {
		return fmt.Errorf("failed to apply wallet transaction: %w", err)
	}
	if err := c.settlement.Refund(ctx, envelope.SourceID, envelope.Amount); err != nil {
		return fmt.Errorf("failed to refund payout: %w", err)
	}
	return nil
}

// messageKey dedupes on the broker message id, falling back to a body
// hash for publishers that do not set one.
func messageKey(delivery amqp.Delivery) string {
	if delivery.MessageId != "" {
		return "mq:" + delivery.MessageId
	}
	sum := sha256.Sum256(delivery.Body)
	return "mq:" + hex.EncodeToString(sum[:])
}
