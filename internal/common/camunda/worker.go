// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"marketplace-workers/internal/common/observability"
)

// JobHandler is the handler shape every worker package implements.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Instrument wraps a handler with a per-job span and duration metric.
func Instrument(next JobHandler, obs *observability.Observability, taskType string) JobHandler {
	return &instrumentedHandler{next: next, obs: obs, taskType: taskType}
}

type instrumentedHandler struct {
	next     JobHandler
	obs      *observability.Observability
	taskType string
}

func (i *instrumentedHandler) Handle(client worker.JobClient, job entities.Job) {
	ctx := context.Background()
	if tr := i.obs.Tracing(); tr != nil {
		spanCtx, span := tr.StartJobSpan(ctx, i.taskType, job.Key)
		ctx = spanCtx
		defer span.End()
	}

	start := time.Now()
	i.next.Handle(client, job)

	i.obs.RecordJobDuration(ctx, i.taskType, time.Since(start))
	i.obs.RecordJobProcessed(ctx, "handled")
}

// Worker owns one open job subscription.
type Worker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType backed by handler.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	handler JobHandler,
	logger *zap.Logger,
) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Open()

	logger.Info("worker started", zap.String("taskType", taskType))

	return &Worker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

// Stop closes the job subscription; the shared client is closed by the
// manager, not per worker.
func (w *Worker) Stop(_ context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
