package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"legalreview/core"
	"legalreview/models"
)

const (
	QueueDefault = "default"

	resultRetention = 24 * time.Hour
)

var ErrTaskNotFound = errors.New("task not found")

// TaskStatus is the client-facing view of a queued task.
type TaskStatus struct {
	TaskID   string                  `json:"task_id"`
	TaskType string                  `json:"task_type"`
	Status   models.ExtractionStatus `json:"status"`
	Progress float64                 `json:"progress"`
	Result   any                     `json:"result"`
	Error    *string                 `json:"error"`
}

// Enqueuer schedules background work. The API depends on this rather than
// on asynq directly.
type Enqueuer interface {
	EnqueueParseDocument(ctx context.Context, documentID uuid.UUID) (*TaskStatus, error)
	EnqueueExtractDocument(ctx context.Context, documentID, templateID uuid.UUID) (*TaskStatus, error)
	EnqueueReextractProject(ctx context.Context, projectID uuid.UUID) (*TaskStatus, error)
	TaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
}

var taskTypeNames = map[string]string{
	TypeParseDocument:    "document_parsing",
	TypeExtractDocument:  "document_extraction",
	TypeReextractProject: "project_extraction",
}

// Queue enqueues tasks on Redis through asynq and reads their state back.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	maxRetry  int
	timeout   time.Duration
}

var _ Enqueuer = (*Queue)(nil)

func NewQueue(redisOpt asynq.RedisConnOpt, cfg *core.Config) *Queue {
	return &Queue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		maxRetry:  cfg.MaxRetries,
		timeout:   cfg.ExtractionTimeout,
	}
}

func (q *Queue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close())
}

func (q *Queue) EnqueueParseDocument(ctx context.Context, documentID uuid.UUID) (*TaskStatus, error) {
	task, err := NewParseDocumentTask(documentID, q.options(q.maxRetry)...)
	if err != nil {
		return nil, err
	}
	return q.enqueue(ctx, task)
}

func (q *Queue) EnqueueExtractDocument(ctx context.Context, documentID, templateID uuid.UUID) (*TaskStatus, error) {
	task, err := NewExtractDocumentTask(documentID, templateID, q.options(q.maxRetry)...)
	if err != nil {
		return nil, err
	}
	return q.enqueue(ctx, task)
}

func (q *Queue) EnqueueReextractProject(ctx context.Context, projectID uuid.UUID) (*TaskStatus, error) {
	task, err := NewReextractProjectTask(projectID, q.options(0)...)
	if err != nil {
		return nil, err
	}
	return q.enqueue(ctx, task)
}

func (q *Queue) TaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	info, err := q.inspector.GetTaskInfo(QueueDefault, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return statusFromInfo(info), nil
}

func (q *Queue) options(maxRetry int) []asynq.Option {
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(resultRetention),
	}
	if q.timeout > 0 {
		opts = append(opts, asynq.Timeout(q.timeout))
	}
	return opts
}

func (q *Queue) enqueue(ctx context.Context, task *asynq.Task) (*TaskStatus, error) {
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}

	return statusFromInfo(info), nil
}

func statusFromInfo(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:   info.ID,
		TaskType: TaskTypeName(info.Type),
	}

	switch info.State {
	case asynq.TaskStateActive:
		status.Status = models.ExtractionInProgress
		status.Progress = 0.5
	case asynq.TaskStateCompleted:
		status.Status = models.ExtractionCompleted
		status.Progress = 1
	case asynq.TaskStateArchived:
		status.Status = models.ExtractionFailed
		status.Progress = 1
	default:
		status.Status = models.ExtractionPending
	}

	if len(info.Result) > 0 {
		var result any
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status.Result = result
		}
	}
	if info.LastErr != "" {
		lastErr := info.LastErr
		status.Error = &lastErr
	}

	return status
}

// TaskTypeName maps a queue task type to the name clients see.
func TaskTypeName(taskType string) string {
	if name, ok := taskTypeNames[taskType]; ok {
		return name
	}
	return taskType
}
