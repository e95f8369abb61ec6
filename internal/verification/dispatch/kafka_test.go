package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"carematch/internal/platform/kafka"
	"carematch/internal/platform/kafka/consumer"
	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/sentinel"
)

type publishedRecord struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafka.Header
}

type recordingPublisher struct {
	records []publishedRecord
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, key, value []byte, headers ...kafka.Header) error {
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, publishedRecord{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func (s *WorkerSuite) TestKafkaDispatcher() {
	s.Run("requires publisher and topic", func() {
		_, err := NewKafkaDispatcher(nil, "jobs")
		s.Require().Error(err)
		_, err = NewKafkaDispatcher(&recordingPublisher{}, "")
		s.Require().Error(err)
	})

	s.Run("publishes the job keyed by provider", func() {
		publisher := &recordingPublisher{}
		d, err := NewKafkaDispatcher(publisher, "verification.extraction-jobs")
		s.Require().NoError(err)
		job := models.ExtractionJob{
			ProviderID:   id.UserID(uuid.New()),
			SubmissionID: id.NewSubmissionID(),
			Phase:        models.PhaseCredential,
			DocumentRefs: []string{"uploads/wallet.png"},
		}

		s.Require().NoError(d.Dispatch(s.ctx, job))

		s.Require().Len(publisher.records, 1)
		rec := publisher.records[0]
		s.Equal("verification.extraction-jobs", rec.topic)
		s.Equal(job.ProviderID.String(), string(rec.key))
		var decoded models.ExtractionJob
		s.Require().NoError(json.Unmarshal(rec.value, &decoded))
		s.Equal(job.SubmissionID, decoded.SubmissionID)
		s.Equal(job.DocumentRefs, decoded.DocumentRefs)
		s.Contains(rec.headers, kafka.Header{Key: "phase", Value: []byte("credential")})
	})

	s.Run("broker failure is reported as unavailable", func() {
		d, err := NewKafkaDispatcher(&recordingPublisher{err: errors.New("no leader")}, "jobs")
		s.Require().NoError(err)

		err = d.Dispatch(s.ctx, models.ExtractionJob{ProviderID: id.UserID(uuid.New())})
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})
}

func (s *WorkerSuite) TestJobHandler() {
	handler := NewJobHandler(s.worker, nil)

	s.Run("malformed payload is committed without work", func() {
		err := handler.Handle(s.ctx, &consumer.Message{Topic: "jobs", Value: []byte("{not json")})
		s.NoError(err)
	})

	s.Run("job without identifiers is committed without work", func() {
		payload, err := json.Marshal(models.ExtractionJob{Phase: models.PhaseIdentity})
		s.Require().NoError(err)
		s.NoError(handler.Handle(s.ctx, &consumer.Message{Topic: "jobs", Value: payload}))
	})

	s.Run("decoded job runs through the worker", func() {
		providerID := id.UserID(uuid.New())
		job := s.submitIdentity(providerID)
		payload, err := json.Marshal(job)
		s.Require().NoError(err)
		s.mockExtractor.EXPECT().ExtractAndJudge(gomock.Any(), gomock.Any()).Return(passVerdict(), nil)

		s.Require().NoError(handler.Handle(s.ctx, &consumer.Message{Topic: "jobs", Value: payload}))
		s.Equal(models.IdentityVerified, s.identityStatus(providerID))
	})
}
