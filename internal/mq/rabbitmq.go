// Package mq wires the service to RabbitMQ: one connection and the
// durable course-refund consumer.
package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker topology shared with the course service.
const (
	ExchangeCourseService  = "course_service"
	QueueCourseRefund      = "payment_course_refund"
	RoutingKeyCourseRefund = "course.refund.payment"
)

// Conn bundles the AMQP connection and its channel.
type Conn struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Connect dials the broker and declares the course service exchange.
func Connect(url string) (*Conn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(ExchangeCourseService, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Conn{conn: conn, channel: channel}, nil
}

// Close shuts the channel then the connection.
func (c *Conn) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
