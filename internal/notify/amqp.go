// Package notify fans newly observed transactions out to interested
// consumers. The AMQP publisher feeds downstream notification services;
// the log notifier is the fallback when no broker is configured.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"paytrack/internal/core"
	applog "paytrack/internal/log"
)

// Publisher publishes transaction alerts to a RabbitMQ exchange.
type Publisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *applog.Logger
}

// NewPublisher dials the broker and declares the exchange, queue, and
// binding so publishes never race consumer setup.
func NewPublisher(url, exchangeName, queueName string, logger *applog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentNotify})
	}

	p := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}

	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return p, nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.queueName,    // queue name
		p.queueName,    // routing key (same as queue name for direct exchange)
		p.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// NotifyNewTransactions publishes one persistent alert for the batch.
func (p *Publisher) NotifyNewTransactions(ctx context.Context, txns []core.Transaction) error {
	body, err := NewTransactionAlert(txns).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	p.logger.InfoContext(ctx, "published transaction alert",
		applog.FieldTxnCount, len(txns),
		"exchange", p.exchangeName,
		"queue", p.queueName)

	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogNotifier writes alerts to the structured log. Used when no broker is
// configured so poll cycles still leave a trace.
type LogNotifier struct {
	logger *applog.Logger
}

func NewLogNotifier(logger *applog.Logger) *LogNotifier {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentNotify})
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyNewTransactions(ctx context.Context, txns []core.Transaction) error {
	alert := NewTransactionAlert(txns)
	n.logger.InfoContext(ctx, "new transactions",
		applog.FieldTxnCount, alert.Count,
		applog.FieldAmount, alert.TotalAmount.StringFixed(2))
	return nil
}
