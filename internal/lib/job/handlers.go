package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/deppfellow/testtable-service/internal/events"
	"github.com/deppfellow/testtable-service/internal/model/testtable"
)

// handleTestTableChangedTask forwards a committed change to the event
// publisher. Returning an error makes Asynq schedule a retry.
func (j *JobService) handleTestTableChangedTask(ctx context.Context, t *asynq.Task) error {
	var change testtable.Change
	if err := json.Unmarshal(t.Payload(), &change); err != nil {
		// A payload that cannot be decoded never will be.
		return fmt.Errorf("failed to unmarshal test table change payload: %v: %w", err, asynq.SkipRetry)
	}

	topic, err := events.TopicFor(change.Kind)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", string(change.Kind)).
		Str("id", change.ID.String()).
		Str("topic", topic).
		Msg("Processing test table change task")

	if err := j.publisher.Publish(ctx, topic, change); err != nil {
		j.logger.Error().
			Str("topic", topic).
			Str("id", change.ID.String()).
			Err(err).
			Msg("Failed to publish test table change")
		return err
	}

	j.logger.Debug().
		Str("topic", topic).
		Str("id", change.ID.String()).
		Msg("Published test table change")

	return nil
}
