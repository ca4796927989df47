package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartNotificationsConsumer connects to RabbitMQ, declares the
// events.notifications queue (durable), and starts consuming messages.
// Each notice is appended to logs/notifications.log in a single-line,
// human-friendly format. The function runs a reconnect loop with
// exponential backoff and keeps running indefinitely, logging any
// processing errors while rejecting the offending message so the
// server continues operating.
func StartNotificationsConsumer() error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(notificationsQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(notificationsQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("notify-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	var line string
	switch env.Kind {
	case KindEventPublished:
		var n EventPublishedNotice
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Kind, err)
		}
		line = fmt.Sprintf("[%s] Event published | event_id=%d | initiator_id=%d | title=%q | event_date=%s\n",
			n.PublishedAt, n.EventID, n.InitiatorID, n.Title, n.EventDate)
	case KindRequestsDecided:
		var n RequestsDecidedNotice
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Kind, err)
		}
		line = fmt.Sprintf("[%s] Requests decided | event_id=%d | owner_id=%d | confirmed=%v | rejected=%v\n",
			n.DecidedAt, n.EventID, n.OwnerID, n.Confirmed, n.Rejected)
	default:
		return fmt.Errorf("unknown notice kind %q", env.Kind)
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
