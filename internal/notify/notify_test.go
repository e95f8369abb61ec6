package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carematch/internal/platform/kafka"
	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
)

type sentRecord struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafka.Header
}

type fakePublisher struct {
	sent    []sentRecord
	failFor string
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte, headers ...kafka.Header) error {
	for _, h := range headers {
		if h.Key == "stage" && string(h.Value) == p.failFor {
			return errors.New("broker unavailable")
		}
	}
	p.sent = append(p.sent, sentRecord{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func transitions(providerID id.UserID) []models.TransitionEvent {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return []models.TransitionEvent{
		{ProviderID: providerID, Stage: models.StageIdentity, From: "processing", To: "verified", OccurredAt: now},
		{ProviderID: providerID, Stage: models.StageAggregate, From: "not_started", To: "in_progress", OccurredAt: now},
	}
}

func TestNewKafkaNotifier(t *testing.T) {
	_, err := NewKafkaNotifier(nil, "topic")
	require.Error(t, err)
	_, err = NewKafkaNotifier(&fakePublisher{}, "")
	require.Error(t, err)
}

func TestKafkaNotifier_Publish(t *testing.T) {
	providerID := id.UserID(uuid.New())

	t.Run("one record per transition keyed by provider", func(t *testing.T) {
		pub := &fakePublisher{}
		n, err := NewKafkaNotifier(pub, "verification.transitions")
		require.NoError(t, err)

		require.NoError(t, n.Publish(context.Background(), transitions(providerID)))

		require.Len(t, pub.sent, 2)
		for _, rec := range pub.sent {
			assert.Equal(t, "verification.transitions", rec.topic)
			assert.Equal(t, providerID.String(), string(rec.key))
		}
		var decoded models.TransitionEvent
		require.NoError(t, json.Unmarshal(pub.sent[0].value, &decoded))
		assert.Equal(t, "verified", decoded.To)
		assert.Contains(t, pub.sent[0].headers, kafka.Header{Key: "stage", Value: []byte("identity")})
	})

	t.Run("one failed record does not stop the rest", func(t *testing.T) {
		pub := &fakePublisher{failFor: models.StageIdentity}
		n, err := NewKafkaNotifier(pub, "verification.transitions")
		require.NoError(t, err)

		err = n.Publish(context.Background(), transitions(providerID))
		require.Error(t, err)
		assert.Len(t, pub.sent, 1)
	})

	t.Run("cancelled caller context still publishes", func(t *testing.T) {
		pub := &fakePublisher{}
		n, err := NewKafkaNotifier(pub, "verification.transitions")
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, n.Publish(ctx, transitions(providerID)))
		assert.Len(t, pub.sent, 2)
	})
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, n.Publish(context.Background(), transitions(id.UserID(uuid.New()))))
	assert.Contains(t, buf.String(), `"stage":"identity"`)
	assert.Contains(t, buf.String(), `"to":"in_progress"`)
}
