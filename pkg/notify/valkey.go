package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/valkey-io/valkey-go"
)

const changeChannel = "memo:messages:changed"

// Valkey is a Notifier backed by valkey pub/sub, for setups where several
// gateway processes share one database and each needs to see the others'
// writes without polling.
type Valkey struct {
	client valkey.Client
	logger *log.Logger
}

// NewValkey connects to valkey and verifies the connection with a ping
func NewValkey(addr, password string, logger *log.Logger) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	return &Valkey{client: client, logger: logger}, nil
}

func (n *Valkey) Publish(ctx context.Context) error {
	pubCmd := n.client.B().Publish().
		Channel(changeChannel).
		Message("changed").
		Build()

	if err := n.client.Do(ctx, pubCmd).Error(); err != nil {
		return fmt.Errorf("failed to publish change notification: %w", err)
	}

	return nil
}

func (n *Valkey) Subscribe(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)

		subCmd := n.client.B().Subscribe().Channel(changeChannel).Build()

		err := n.client.Receive(ctx, subCmd, func(msg valkey.PubSubMessage) {
			select {
			case ch <- struct{}{}:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			n.logger.Error("Valkey subscription ended", "error", err)
		}
	}()

	return ch
}

// Close closes the client connection
func (n *Valkey) Close() {
	n.client.Close()
}
