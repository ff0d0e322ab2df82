package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_LeaveFinalized(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.PublishLeaveFinalized(context.Background(), LeaveFinalizedEvent{
		RequestID:   "req-1",
		EmployeeID:  "emp-1",
		LeaveType:   "annual",
		StartDate:   "2024-03-05",
		EndDate:     "2024-03-07",
		Days:        3,
		FinalizedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicLeaveFinalized, msg.Topic)
	assert.Equal(t, "emp-1", string(msg.Key))
	assert.Equal(t, "LeaveFinalized", string(msg.Headers[0].Value))

	var decoded LeaveFinalizedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 3, decoded.Days)
}

func TestKafkaPublisher_LeaveRevoked(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.PublishLeaveRevoked(context.Background(), LeaveRevokedEvent{
		RequestID:  "req-1",
		EmployeeID: "emp-1",
		Days:       3,
		RevokedBy:  "admin-1",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicLeaveRevoked, w.msgs[0].Topic)
	assert.Equal(t, "emp-1", string(w.msgs[0].Key))
	assert.Equal(t, "LeaveRevoked", string(w.msgs[0].Headers[0].Value))
}

func TestKafkaPublisher_PayrollApprovedBatch(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.PublishPayrollApproved(context.Background(), nil))
	assert.Empty(t, w.msgs)

	err := p.PublishPayrollApproved(context.Background(), []PayrollApprovedEvent{
		{PayrollID: "p1", EmployeeID: "e1"},
		{PayrollID: "p2", EmployeeID: "e2"},
	})
	require.NoError(t, err)
	assert.Len(t, w.msgs, 2)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}}

	err := p.PublishLeaveFinalized(context.Background(), LeaveFinalizedEvent{EmployeeID: "e"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), TopicLeaveFinalized)
}
