package rabbitmq_producer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"property-browser-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConfirmed возвращается, если брокер ответил nack на публикацию
var ErrNotConfirmed = errors.New("producer: message was not confirmed by broker")

const defaultConfirmTimeout = 5 * time.Second

// PublisherConfig конфигурация публикатора с подтверждениями
type PublisherConfig struct {
	rabbitmq_common.Config
	ExchangeName    string // "" означает default exchange
	ExchangeType    string // direct, fanout, topic, headers
	DurableExchange bool

	// Если false, обменник должен существовать заранее
	DeclareExchangeIfMissing bool

	// Сколько ждать ack от брокера
	ConfirmTimeout time.Duration

	Logger rabbitmq_common.Logger
}

func (c PublisherConfig) validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.DeclareExchangeIfMissing && (c.ExchangeName == "") != (c.ExchangeType == "") {
		return fmt.Errorf("producer: exchange name and type must be set together when DeclareExchangeIfMissing is true")
	}
	return nil
}

// Publisher публикует сообщения в режиме publisher confirms.
// Канал открывается лениво и переоткрывается через ConnectionManager после обрыва.
type Publisher struct {
	config  PublisherConfig
	manager *rabbitmq_common.ConnectionManager
	logger  rabbitmq_common.Logger

	// amqp.Channel не потокобезопасен для публикаций
	mu      sync.Mutex
	channel *amqp.Channel
	closed  bool
}

// NewPublisher создает публикатора и сразу открывает канал, чтобы ошибки конфигурации
// обменника всплыли на старте
func NewPublisher(cfg PublisherConfig, connManager *rabbitmq_common.ConnectionManager) (*Publisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid publisher config: %w", err)
	}
	if connManager == nil {
		return nil, fmt.Errorf("producer: connection manager is required")
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	p := &Publisher{config: cfg, manager: connManager, logger: logger}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.openLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) openLocked() error {
	_, ch, err := p.manager.GetChannel()
	if err != nil {
		return fmt.Errorf("producer: failed to get channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("producer: failed to enable confirm mode: %w", err)
	}
	if p.config.DeclareExchangeIfMissing && p.config.ExchangeName != "" {
		err = ch.ExchangeDeclare(
			p.config.ExchangeName,
			p.config.ExchangeType,
			p.config.DurableExchange,
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return fmt.Errorf("producer: failed to declare exchange '%s': %w", p.config.ExchangeName, err)
		}
	}
	p.channel = ch
	p.logger.Debug("Publisher channel opened in confirm mode", "exchange", p.config.ExchangeName)
	return nil
}

// Publish отправляет сообщение и ждет подтверждения брокера
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("producer: publisher is closed")
	}
	if p.channel == nil || p.channel.IsClosed() {
		p.logger.Info("Publisher channel is closed, reopening")
		if err := p.openLocked(); err != nil {
			return err
		}
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.config.ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	if confirm == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.config.ConfirmTimeout)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("producer: waiting for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

// Close закрывает канал. Соединение принадлежит ConnectionManager.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		p.logger.Error(err, "Error closing publisher channel")
		return err
	}
	p.logger.Info("Publisher closed")
	return nil
}
