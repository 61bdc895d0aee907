// Package schedule provides cron-based workflow run scheduling. A trigger
// fires a callback on its cron expression; the worker uses the callback to
// dispatch a run request for the bound workflow.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Callback is invoked on every cron fire with trigger metadata.
type Callback func(ctx context.Context, data map[string]any) error

// Trigger fires a workflow run request on a cron schedule.
type Trigger struct {
	ID         string
	CronExpr   string
	WorkflowID string
	Enabled    bool

	cron     *cron.Cron
	callback Callback
	logger   *slog.Logger
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	id, _ := config["id"].(string)
	cronExpr, _ := config["cron"].(string)
	workflowID, _ := config["workflow_id"].(string)

	trigger := &Trigger{
		ID:         id,
		CronExpr:   cronExpr,
		WorkflowID: workflowID,
		Enabled:    true,
		logger: logger.With(
			"module", "schedule_trigger",
			"id", id,
			"cron", cronExpr,
			"workflow_id", workflowID,
		),
	}

	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.ID == "" {
		return errors.New("schedule trigger ID is required")
	}

	if t.WorkflowID == "" {
		return errors.New("schedule trigger workflow_id is required")
	}

	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	if _, err := cron.ParseStandard(t.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback Callback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "ScheduleTrigger is disabled.")

		return nil
	}

	t.logger.InfoContext(ctx, "Starting ScheduleTrigger")
	t.callback = callback

	t.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := t.cron.AddFunc(t.CronExpr, t.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job for trigger %s: %w", t.ID, err)
	}

	t.logger.InfoContext(ctx, "Added cron job for trigger", "entry_id", int(id))
	t.cron.Start()

	return nil
}

func (t *Trigger) run() {
	t.logger.Info("Cron job triggered")

	data := map[string]any{
		"trigger_id":  t.ID,
		"workflow_id": t.WorkflowID,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	go func() {
		if err := t.callback(context.Background(), data); err != nil {
			t.logger.Error("Error dispatching scheduled run", "error", err)
		}
	}()
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping ScheduleTrigger", "id", t.ID)

	if t.cron != nil {
		t.cron.Stop()
	}

	return nil
}
