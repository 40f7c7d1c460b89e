package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitQueue publishes to a durable queue with a dead letter queue for
// messages whose handler failed.
type RabbitQueue struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel
	done chan struct{}
}

func NewRabbitQueue(url, queue string, logger *slog.Logger) (*RabbitQueue, error) {
	r := &RabbitQueue{url: url, queue: queue, logger: logger, done: make(chan struct{})}
	if err := r.connect(); err != nil {
		return nil, err
	}
	go r.handleReconnect(5 * time.Second)
	return r, nil
}

func (r *RabbitQueue) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := r.setup(ch); err != nil {
		conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitQueue) setup(ch *amqp.Channel) error {
	dlx := r.queue + "_dlx"
	if err := ch.ExchangeDeclare(
		dlx,      // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(r.queue+"_dlq", true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(r.queue+"_dlq", "", dlx, false, nil); err != nil {
		return err
	}

	_, err := ch.QueueDeclare(
		r.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		amqp.Table{"x-dead-letter-exchange": dlx},
	)
	return err
}

func (r *RabbitQueue) handleReconnect(backoff time.Duration) {
	for {
		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()

		errs := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-r.done:
			return
		case e := <-errs:
			if e == nil {
				// closed by us
				return
			}
			r.logger.Warn("RabbitMQ connection closed, reconnecting", "error", e)
		}

		for {
			select {
			case <-r.done:
				return
			case <-time.After(backoff):
			}
			if err := r.connect(); err != nil {
				r.logger.Warn("RabbitMQ reconnect failed", "error", err)
				continue
			}
			r.logger.Info("RabbitMQ reconnected")
			break
		}
	}
}

func (r *RabbitQueue) channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ch
}

func (r *RabbitQueue) Publish(ctx context.Context, msg SubmissionMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal submission message: %w", err)
	}

	err = r.channel().PublishWithContext(
		ctx,
		"",      // default exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.InvoiceID.String(),
			Timestamp:    msg.EnqueuedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish submission message: %w", err)
	}
	return nil
}

// Consume subscribes again after every reconnect until ctx is done.
func (r *RabbitQueue) Consume(ctx context.Context, workers int, handler Handler) error {
	if workers < 1 {
		workers = 1
	}
	for {
		if err := r.consumeOnce(ctx, workers, handler); err != nil {
			r.logger.Warn("RabbitMQ consumer stopped", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.done:
			return ErrClosed
		case <-time.After(time.Second):
		}
	}
}

func (r *RabbitQueue) consumeOnce(ctx context.Context, workers int, handler Handler) error {
	ch := r.channel()
	if err := ch.Qos(workers, 0, false); err != nil {
		return err
	}
	msgs, err := ch.Consume(
		r.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						return
					}
					r.handle(ctx, d, handler)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

func (r *RabbitQueue) handle(ctx context.Context, d amqp.Delivery, handler Handler) {
	var msg SubmissionMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		r.logger.Error("Malformed submission message", "error", err)
		_ = d.Nack(false, false)
		return
	}
	if err := handler(ctx, msg); err != nil {
		r.logger.Error("Submission message failed", "invoice_id", msg.InvoiceID, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (r *RabbitQueue) Close() error {
	select {
	case <-r.done:
		return nil
	default:
		close(r.done)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil {
		r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
