package natsstan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/zari-storefront/internal/domain"
	stan "github.com/nats-io/stan.go"
)

type conn interface {
	Publish(subject string, data []byte) error
	Close() error
}

// Publisher — публикует готовые токены чеков в ленту оператора.
type Publisher struct {
	sc      conn
	subject string
}

// Connect opens a streaming connection used for publishing only.
func Connect(clusterID, clientID, url, subject string) (*Publisher, error) {
	if clientID == "" {
		clientID = fmt.Sprintf("zari-storefront-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(url))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	return &Publisher{sc: sc, subject: subject}, nil
}

// Publish sends the token synchronously and waits for the server ack.
func (p *Publisher) Publish(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.sc.Publish(p.subject, []byte(token)); err != nil {
		return fmt.Errorf("stan publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.sc.Close()
}

var _ domain.HandoffPublisher = (*Publisher)(nil)
