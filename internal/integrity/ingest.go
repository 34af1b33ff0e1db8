package integrity

import (
	"context"
	"time"

	"intervuex/internal/metrics"
	"intervuex/internal/models"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

// SignalIngestor connects the classifier to the violation log for the real-time path.
type SignalIngestor struct {
	classifier *Classifier
	service    *Service
	now        func() time.Time
	logger     *zap.Logger
}

func NewSignalIngestor(classifier *Classifier, service *Service, logger *zap.Logger) *SignalIngestor {
	return &SignalIngestor{
		classifier: classifier,
		service:    service,
		now:        time.Now,
		logger:     utils.OrNop(logger),
	}
}

// Ingest classifies one sample and appends whatever fired. Failures are logged and the sample
// is dropped; the caller never sees an error.
func (i *SignalIngestor) Ingest(ctx context.Context, sessionID string, sample Sample) []*RecordResult {
	now := i.now()
	detections, err := i.classifier.Classify(sessionID, sample, now)
	if err != nil {
		metrics.SignalDropped("unclassifiable")
		i.logger.Warn("dropping proctoring sample",
			zap.String("session_id", sessionID),
			zap.String("kind", sample.Kind),
			zap.Error(err))
		return nil
	}

	occurredAt := sample.At
	if occurredAt.IsZero() {
		occurredAt = now
	}

	var results []*RecordResult
	for _, d := range detections {
		res, err := i.service.Record(ctx, RecordInput{
			SessionID:  sessionID,
			Type:       d.Type,
			Severity:   string(d.Severity),
			Source:     models.ViolationSourceChannel,
			Message:    d.Message,
			Details:    d.Details,
			OccurredAt: occurredAt,
		})
		if err != nil {
			metrics.SignalDropped("record_failed")
			i.logger.Error("failed to record classified violation",
				zap.String("session_id", sessionID),
				zap.String("type", d.Type),
				zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results
}

func (i *SignalIngestor) Forget(sessionID string) {
	i.classifier.Forget(sessionID)
}
