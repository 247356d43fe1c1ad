// Package events публикует события жизненного цикла записей.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Sink получатель событий
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// messageWriter часть kafka.Writer, нужная издателю
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикует события в топик Kafka.
// Ключ сообщения - дата записи, поэтому события одной даты идут в одну партицию по порядку.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher создаёт издателя для списка брокеров "host1:9092,host2:9092"
func NewKafkaPublisher(brokers, topic string, writeTimeout time.Duration) *KafkaPublisher {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(SplitBrokers(brokers)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: writeTimeout,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish отправляет событие
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Reservation.Date),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic %s: %v", ErrPublish, p.topic, err)
	}
	return nil
}

// Close закрывает соединения с брокерами
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// SplitBrokers разбирает список брокеров через запятую
func SplitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NoopPublisher отбрасывает события (публикация выключена)
type NoopPublisher struct{}

// Publish ничего не делает
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Fanout рассылает событие всем получателям. Ошибки собираются, но не
// прерывают рассылку остальным.
type Fanout []Sink

// Publish отправляет событие каждому получателю
func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notifier публикует события после фиксации транзакции.
// Запись уже сохранена, поэтому ошибка публикации только логируется.
type Notifier struct {
	sink    Sink
	timeout time.Duration
	logger  Logger
}

// NewNotifier создаёт обёртку над получателем событий
func NewNotifier(sink Sink, timeout time.Duration, logger Logger) *Notifier {
	if sink == nil {
		sink = NoopPublisher{}
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Notifier{sink: sink, timeout: timeout, logger: logger}
}

// Notify публикует событие с собственным таймаутом, не зависящим от отмены запроса
func (n *Notifier) Notify(ctx context.Context, event Event) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.sink.Publish(pubCtx, event); err != nil {
		n.logger.Error("Events: failed to publish %s for reservation id=%d: %v",
			event.Type, event.Reservation.ID, err)
		return
	}
	n.logger.Info("Events: published %s for reservation id=%d", event.Type, event.Reservation.ID)
}
