package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"legalreview/internal/tasks"
	"legalreview/models"
)

// EnqueuedTask records one call on FakeEnqueuer.
type EnqueuedTask struct {
	Type       string
	DocumentID uuid.UUID
	TemplateID uuid.UUID
	ProjectID  uuid.UUID
}

// FakeEnqueuer records tasks instead of sending them to Redis.
type FakeEnqueuer struct {
	mu       sync.Mutex
	Tasks    []EnqueuedTask
	Err      error
	Statuses map[string]*tasks.TaskStatus
}

var _ tasks.Enqueuer = (*FakeEnqueuer)(nil)

func NewFakeEnqueuer() *FakeEnqueuer {
	return &FakeEnqueuer{Statuses: map[string]*tasks.TaskStatus{}}
}

func (f *FakeEnqueuer) EnqueueParseDocument(_ context.Context, documentID uuid.UUID) (*tasks.TaskStatus, error) {
	return f.record(EnqueuedTask{Type: tasks.TypeParseDocument, DocumentID: documentID})
}

func (f *FakeEnqueuer) EnqueueExtractDocument(_ context.Context, documentID, templateID uuid.UUID) (*tasks.TaskStatus, error) {
	return f.record(EnqueuedTask{Type: tasks.TypeExtractDocument, DocumentID: documentID, TemplateID: templateID})
}

func (f *FakeEnqueuer) EnqueueReextractProject(_ context.Context, projectID uuid.UUID) (*tasks.TaskStatus, error) {
	return f.record(EnqueuedTask{Type: tasks.TypeReextractProject, ProjectID: projectID})
}

func (f *FakeEnqueuer) TaskStatus(_ context.Context, taskID string) (*tasks.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	status, ok := f.Statuses[taskID]
	if !ok {
		return nil, tasks.ErrTaskNotFound
	}
	return status, nil
}

// Queued returns the recorded tasks of the given type.
func (f *FakeEnqueuer) Queued(taskType string) []EnqueuedTask {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []EnqueuedTask
	for _, t := range f.Tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

func (f *FakeEnqueuer) record(t EnqueuedTask) (*tasks.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	f.Tasks = append(f.Tasks, t)
	status := &tasks.TaskStatus{
		TaskID:   fmt.Sprintf("task-%d", len(f.Tasks)),
		TaskType: tasks.TaskTypeName(t.Type),
		Status:   models.ExtractionPending,
	}
	f.Statuses[status.TaskID] = status

	return status, nil
}

// FakeModel answers every prompt with Reply, or fails with Err.
type FakeModel struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []string
}

func (m *FakeModel) Name() string { return "fake" }

func (m *FakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}
