package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	PublishLeaveFinalized(ctx context.Context, event LeaveFinalizedEvent) error
	PublishLeaveRevoked(ctx context.Context, event LeaveRevokedEvent) error
	PublishPayrollApproved(ctx context.Context, events []PayrollApprovedEvent) error
	Close() error
}

// NoopPublisher drops events; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishLeaveFinalized(context.Context, LeaveFinalizedEvent) error     { return nil }
func (NoopPublisher) PublishLeaveRevoked(context.Context, LeaveRevokedEvent) error         { return nil }
func (NoopPublisher) PublishPayrollApproved(context.Context, []PayrollApprovedEvent) error { return nil }
func (NoopPublisher) Close() error                                                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher writes to brokers; the topic is chosen per message.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishLeaveFinalized(ctx context.Context, event LeaveFinalizedEvent) error {
	msg, err := newMessage(TopicLeaveFinalized, event.EmployeeID, "LeaveFinalized", event)
	if err != nil {
		return err
	}
	return p.write(ctx, msg)
}

func (p *KafkaPublisher) PublishLeaveRevoked(ctx context.Context, event LeaveRevokedEvent) error {
	msg, err := newMessage(TopicLeaveRevoked, event.EmployeeID, "LeaveRevoked", event)
	if err != nil {
		return err
	}
	return p.write(ctx, msg)
}

func (p *KafkaPublisher) PublishPayrollApproved(ctx context.Context, events []PayrollApprovedEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := newMessage(TopicPayrollApproved, e.EmployeeID, "PayrollApproved", e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.write(ctx, msgs...)
}

func (p *KafkaPublisher) write(ctx context.Context, msgs ...kafka.Message) error {
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %s: %w", msgs[0].Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func newMessage(topic, key, eventType string, payload any) (kafka.Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s: %w", eventType, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}
