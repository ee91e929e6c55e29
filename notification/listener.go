package notification

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pizzapizza/pizzeria/events"
)

// Listener consumes order-placed events and mails a confirmation for each.
type Listener struct {
	mailer Mailer
	log    *logrus.Logger
}

func NewListener(mailer Mailer, log *logrus.Logger) *Listener {
	return &Listener{mailer: mailer, log: log}
}

// Run blocks until ctx is cancelled or the event channel is closed. It is
// meant to run on its own goroutine next to the server.
func (l *Listener) Run(ctx context.Context, in <-chan events.OrderPlaced) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				return
			}
			l.handle(ctx, e)
		}
	}
}

func (l *Listener) handle(ctx context.Context, e events.OrderPlaced) {
	name := e.User.FirstName + " " + e.User.LastName
	mail := Mail{
		To:      fmt.Sprintf("%s <%s>", name, e.User.Email),
		Subject: fmt.Sprintf("Order %s successful", e.OrderID),
		Text: fmt.Sprintf(`Hello %s,

your order was placed successfully and we received your payment.

You will get your pizza in about 20 minutes.

Best,
Pizza Pizza`, name),
	}

	if err := l.mailer.Send(ctx, mail); err != nil {
		l.log.WithError(err).WithField("orderId", e.OrderID).Error("could not send confirmation mail")
	}
}
