package workerproc

import (
	"context"
	"errors"
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/analyses"
	"github.com/lex-technology/workwise-backend/internal/queue"
	"github.com/lex-technology/workwise-backend/internal/shared/metrics"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// Processor routes decoded queue messages to the owning service. The
// consumer already decoded and will not redeliver, so every failure here
// must leave its trace in telemetry and on the application row.
type Processor struct {
	Analyses *analyses.Service
}

// Handle implements queue.Handler.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) error {
	metrics.IncAnalysisJobsReceived()

	switch msg.Kind {
	case queue.KindJDAnalysis:
		return p.handleJDAnalysis(ctx, msg)
	default:
		metrics.IncAnalysisJobsFailed()
		telemetry.Error("worker.unknown_kind", map[string]any{
			"kind":       msg.Kind,
			"request_id": msg.RequestID,
		})
		return fmt.Errorf("unknown message kind %q", msg.Kind)
	}
}

func (p *Processor) handleJDAnalysis(ctx context.Context, msg queue.Message) error {
	fields := map[string]any{
		"application_id": msg.ApplicationID,
		"user_id":        msg.UserID,
		"request_id":     msg.RequestID,
	}

	if p.Analyses == nil {
		metrics.IncAnalysisJobsFailed()
		return errors.New("analysis service not configured")
	}
	if msg.ApplicationID <= 0 || msg.UserID == "" {
		metrics.IncAnalysisJobsFailed()
		telemetry.Error("worker.jd_analysis.invalid_message", fields)
		return errors.New("jd analysis message missing target")
	}

	telemetry.Info("worker.jd_analysis.received", fields)

	if _, err := p.Analyses.AnalyzeJD(ctx, msg.UserID, msg.ApplicationID); err != nil {
		metrics.IncAnalysisJobsFailed()
		failFields := map[string]any{
			"application_id": msg.ApplicationID,
			"user_id":        msg.UserID,
			"request_id":     msg.RequestID,
			"error":          err.Error(),
		}
		telemetry.Error("worker.jd_analysis.failed", failFields)
		return fmt.Errorf("jd analysis application %d: %w", msg.ApplicationID, err)
	}

	metrics.IncAnalysisJobsCompleted()
	telemetry.Info("worker.jd_analysis.completed", fields)
	return nil
}
