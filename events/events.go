// Package events carries domain events between the request path and
// background listeners over a buffered channel.
package events

import (
	"github.com/sirupsen/logrus"

	"github.com/pizzapizza/pizzeria/models"
)

type OrderPlaced struct {
	OrderID string
	User    models.User
}

type Bus struct {
	log *logrus.Logger
	ch  chan OrderPlaced
}

func NewBus(log *logrus.Logger, buffer int) *Bus {
	return &Bus{
		log: log,
		ch:  make(chan OrderPlaced, buffer),
	}
}

// Publish hands the event to the listeners without ever blocking the
// caller. When the buffer is full the event is dropped and logged; a lost
// notification must not fail an already-placed order.
func (b *Bus) Publish(e OrderPlaced) {
	select {
	case b.ch <- e:
	default:
		b.log.WithField("orderId", e.OrderID).Warn("event buffer full, dropping order-placed event")
	}
}

// Events is the channel listeners consume from.
func (b *Bus) Events() <-chan OrderPlaced {
	return b.ch
}

// Close stops the bus; listeners drain and exit.
func (b *Bus) Close() {
	close(b.ch)
}
