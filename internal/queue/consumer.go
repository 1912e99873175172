package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logging "github.com/op/go-logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

var log = logging.MustGetLogger("queue")

// SalesConsumer listens to the sale.completed queue and appends one line
// per sale to <dir>/sales.log.
type SalesConsumer struct {
	URL string
	Dir string
}

// Run dials the broker, declares the durable queue and consumes until ctx
// is cancelled, reconnecting with exponential backoff.  A message that
// cannot be handled is rejected without requeue so the loop never spins.
func (sc SalesConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(sc.URL)
		if err != nil {
			log.Warningf("sales-consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = sc.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warningf("sales-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (sc SalesConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warningf("sales-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(EventSaleCompleted, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EventSaleCompleted, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := sc.handleMessage(d.Body); err != nil {
				log.Errorf("sales-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (sc SalesConsumer) handleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type != EventSaleCompleted {
		return fmt.Errorf("unexpected event type %q", ev.Type)
	}
	var sale SaleCompletedEvent
	if err := json.Unmarshal(ev.Data, &sale); err != nil {
		return fmt.Errorf("unmarshal sale: %w", err)
	}

	dir := sc.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "sales.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	ids := make([]string, 0, len(sale.OrderIDs))
	for _, id := range sale.OrderIDs {
		ids = append(ids, fmt.Sprint(id))
	}
	line := fmt.Sprintf("[%s] Sale completed | sale_id=%d | table=%s | method=%q | reference=%q | total=%s | orders=[%s] | event=%s\n",
		sale.CompletedAt, sale.SaleID, ev.TableID, sale.Method, sale.Reference, sale.Total, strings.Join(ids, ","), ev.ID)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
