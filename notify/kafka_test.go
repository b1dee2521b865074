package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/register-review/estimate"
	"github.com/warp/register-review/notify"
	"github.com/warp/register-review/register"
	"github.com/warp/register-review/review"
	"github.com/warp/register-review/validate"
)

func storedRun() *review.StoredRun {
	res := review.Aggregate(&validate.Result{}, nil)
	res.BaseDate = register.NewDate(2024, 12, 31)
	res.DayCount = estimate.DayCountActual
	res.Policy = estimate.PolicyFlat
	return review.NewStoredRun("book.xlsx", res)
}

func header(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaNotifier_ReviewCompleted(t *testing.T) {
	// GIVEN: a notifier on a mock producer expecting one message
	sp := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	run := storedRun()
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != run.ID.String() {
			return errors.New("unexpected key " + string(key))
		}
		if msg.Topic != "review-events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		if header(msg, "event-kind") != notify.EventReviewCompleted || header(msg, "source") != "register-review" {
			return errors.New("missing headers")
		}
		return nil
	})
	core, logs := observer.New(zapcore.InfoLevel)
	n := notify.NewKafkaNotifier(sp, notify.Config{Topic: "review-events", Source: "register-review"}, zap.New(core))

	// WHEN: a run completes
	err := n.ReviewCompleted(context.Background(), run)

	// THEN: one message is sent and logged
	require.NoError(t, err)
	require.NoError(t, n.Close())
	require.Equal(t, 1, logs.FilterMessage("kafka message sent").Len())
}

func TestKafkaNotifier_EventBody(t *testing.T) {
	sp := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	run := storedRun()
	var got notify.Event
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})
	n := notify.NewKafkaNotifier(sp, notify.Config{Topic: "t"}, nil)

	require.NoError(t, n.ReviewCompleted(context.Background(), run))
	require.NoError(t, n.Close())

	assert.Equal(t, notify.EventReviewCompleted, got.Kind)
	assert.Equal(t, run.ID, got.Run.ID)
	assert.Equal(t, "book.xlsx", got.Run.Source)
	assert.Equal(t, register.NewDate(2024, 12, 31), got.Run.BaseDate)
	assert.Equal(t, estimate.DayCountActual, got.Run.DayCount)
}

func TestKafkaNotifier_SendFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	boom := errors.New("broker down")
	sp.ExpectSendMessageAndFail(boom)
	core, logs := observer.New(zapcore.InfoLevel)
	n := notify.NewKafkaNotifier(sp, notify.Config{Topic: "t"}, zap.New(core))

	err := n.ReviewCompleted(context.Background(), storedRun())
	assert.ErrorIs(t, err, boom)
	require.NoError(t, n.Close())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestNewSyncProducer_NoBrokers(t *testing.T) {
	_, err := notify.NewSyncProducer(notify.Config{})
	assert.Error(t, err)
}

func TestKafkaNotifier_NilProducer(t *testing.T) {
	n := notify.NewKafkaNotifier(nil, notify.Config{}, nil)
	assert.Error(t, n.ReviewCompleted(context.Background(), storedRun()))
	assert.NoError(t, n.Close())
}
