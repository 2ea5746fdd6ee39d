package natsstan

import (
	"context"
	"fmt"
	"time"

	"github.com/example/zari-storefront/internal/domain"
	stan "github.com/nats-io/stan.go"
	"go.uber.org/zap"
)

// Subscriber — долговечная подписка оператора на ленту токенов чеков.
type Subscriber struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string
	Log       *zap.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	clientID := s.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("zari-decoder-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(s.ClusterID, clientID, stan.NatsURL(s.URL))
	if err != nil {
		return fmt.Errorf("stan connect: %w", err)
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.Subscribe(s.Subject, ackingHandler(handler, log),
		stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(10*time.Second), stan.DeliverAllAvailable())
	if err != nil {
		return fmt.Errorf("stan subscribe: %w", err)
	}
	return nil
}

type acker interface {
	Ack() error
}

// ackingHandler acknowledges a message only after handler succeeded so a
// failed one is redelivered.
func ackingHandler(handler func(ctx context.Context, raw []byte) error, log *zap.Logger) stan.MsgHandler {
	return func(m *stan.Msg) {
		handle(m.Data, m, handler, log)
	}
}

func handle(data []byte, m acker, handler func(ctx context.Context, raw []byte) error, log *zap.Logger) {
	hCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := handler(hCtx, data); err != nil {
		log.Warn("handoff message rejected", zap.Error(err))
		return
	}
	if err := m.Ack(); err != nil {
		log.Warn("ack failed", zap.Error(err))
	}
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
