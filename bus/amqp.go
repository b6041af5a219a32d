package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const defaultExchange = "pfos.changes"

// envelope is the wire shape of a change event on the broker path. Origin
// lets instances drop their own broadcasts, since a fanout exchange
// delivers to every bound queue including the publisher's.
type envelope struct {
	Scope  string `json:"scope"`
	At     int64  `json:"at"`
	Origin string `json:"origin"`
}

type amqpClient struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func dialAMQP(url, exchange string) (*amqpClient, error) {
	if exchange == "" {
		exchange = defaultExchange
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Fanout, non-durable: events are advisory and have no value across
	// broker restarts.
	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		false,    // durable
		true,     // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &amqpClient{conn: conn, channel: channel, exchange: exchange}, nil
}

func (c *amqpClient) publish(ctx context.Context, env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		"",         // routing key (ignored by fanout)
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// consume binds a fresh instance-private queue to the exchange and feeds
// decoded envelopes to handle until stop closes.
func (c *amqpClient) consume(stop <-chan struct{}, handle func(envelope)) error {
	queue, err := c.channel.QueueDeclare(
		"",    // name (server-generated)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(queue.Name, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack (advisory delivery, no redelivery wanted)
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	for {
		select {
		case <-stop:
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var env envelope
			if err := json.Unmarshal(delivery.Body, &env); err != nil {
				continue
			}
			handle(env)
		}
	}
}

func (c *amqpClient) close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
