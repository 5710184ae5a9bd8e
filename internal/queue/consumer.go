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

const defaultAuditLog = "logs/auth-audit.log"

// StartAuditConsumer drains the auth.audit queue into an append-only audit
// log on disk (AUDIT_LOG_FILE, default logs/auth-audit.log).  It reconnects
// with capped exponential backoff and keeps running across broker restarts,
// so the caller just launches it in a goroutine and forgets about it.
func StartAuditConsumer() error {
	url := brokerURL()
	path := os.Getenv("AUDIT_LOG_FILE")
	if path == "" {
		path = defaultAuditLog
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer: dial: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := drainAudit(conn, path); err != nil {
			log.Printf("audit-consumer: %v; reconnecting", err)
		}
		_ = conn.Close()
		time.Sleep(2 * time.Second)
	}
}

// drainAudit consumes until the channel dies.  Malformed messages are
// rejected without requeue so one poison message cannot wedge the queue.
func drainAudit(conn *amqp.Connection, path string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("audit-consumer: qos: %v", err)
	}
	if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(auditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range msgs {
		var ev AuthEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("audit-consumer: bad message: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		if err := appendAuditLine(path, ev); err != nil {
			log.Printf("audit-consumer: write: %v", err)
			_ = d.Nack(false, true) // disk hiccup: retry the message
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendAuditLine(path string, ev AuthEvent) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[%s] %s | user_id=%d | email=%q | ip=%s | ua=%q | detail=%q\n",
		ev.At.Format(time.RFC3339), ev.Type, ev.UserID, ev.Email, ev.IP, ev.UserAgent, ev.Detail)
	return err
}
