package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/matst80/slask-browse/pkg/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Invalidator tells other replicas that the hierarchy changed.
type Invalidator interface {
	Publish() error
}

type InvalidationMessage struct {
	Origin string `json:"origin"`
}

// RabbitInvalidator broadcasts hierarchy invalidations over a topic exchange.
// Messages from this replica are ignored when they come back.
type RabbitInvalidator struct {
	conn   *amqp.Connection
	prefix string
	origin string
}

func NewRabbitInvalidator(conn *amqp.Connection, prefix string) (*RabbitInvalidator, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	if err := messaging.DefineTopic(ch, prefix, messaging.HierarchyInvalidated); err != nil {
		return nil, err
	}
	return &RabbitInvalidator{
		conn:   conn,
		prefix: prefix,
		origin: uuid.NewString(),
	}, nil
}

func (r *RabbitInvalidator) Publish() error {
	return messaging.SendChange(r.conn, r.prefix, messaging.HierarchyInvalidated, InvalidationMessage{Origin: r.origin})
}

// Listen calls fn for every invalidation published by another replica.
func (r *RabbitInvalidator) Listen(fn func()) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open invalidation channel: %w", err)
	}
	return messaging.ListenToTopic(ch, r.prefix, messaging.HierarchyInvalidated, func(msg InvalidationMessage) error {
		if msg.Origin != r.origin {
			fn()
		}
		return nil
	})
}
