package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

const (
	// TaskTestTableChanged is the job type name stored in Redis.
	TaskTestTableChanged = "test_table:changed"
)

// NewTestTableChangedTask wraps change in an Asynq task.
//
// Options:
//   - MaxRetry(3): retry up to 3 times on failure
//   - Queue("default"): send into the "default" queue
//   - Timeout(30s): kill the task if the handler runs longer than 30 seconds
func NewTestTableChangedTask(change testtable.Change) (*asynq.Task, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskTestTableChanged,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
