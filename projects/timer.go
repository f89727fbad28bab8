package projects

import (
	"context"
	"time"

	"encore.dev/rlog"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(int64(time.Hour / time.Second))

// elapsedHours converts a stopwatch duration to hours rounded to two decimals.
func elapsedHours(d time.Duration) decimal.Decimal {
	if d < 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour).Round(2)
}

// StartTimer starts the stopwatch of a task.
//
//encore:api public method=POST path=/projects/:id/tasks/:taskID/timer/start
func StartTimer(ctx context.Context, id, taskID string, params *ActorParams) (*model.Project, error) {
	return mutate(ctx, id, actor(params.ActingUser), func(p *model.Project) error {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return errors.NotFoundError(nil, "task")
		}

		if p.Tasks[i].TimerStartedAt != nil {
			return errors.PreconditionError("timer is already running")
		}

		started := now()
		p.Tasks[i].TimerStartedAt = &started
		return nil
	})
}

// StopTimer stops the stopwatch of a task and books the elapsed time as hours.
//
//encore:api public method=POST path=/projects/:id/tasks/:taskID/timer/stop
func StopTimer(ctx context.Context, id, taskID string, params *ActorParams) (*model.Project, error) {
	return mutate(ctx, id, actor(params.ActingUser), func(p *model.Project) error {
		i := p.TaskIndex(taskID)
		if i < 0 {
			return errors.NotFoundError(nil, "task")
		}

		task := &p.Tasks[i]
		if task.TimerStartedAt == nil {
			return errors.PreconditionError("timer is not running")
		}

		booked := elapsedHours(now().Sub(*task.TimerStartedAt))
		task.Hours = task.Hours.Add(booked)
		task.TimerStartedAt = nil

		rlog.Info("booked timer hours", "project_id", p.ID, "task_id", task.ID, "hours", booked.String())
		return nil
	})
}
