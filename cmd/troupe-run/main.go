// Package main provides a one-shot workflow runner: it loads a workflow
// definition from a JSON file, executes it to a terminal status, and prints
// the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/troupe-dev/troupe/pkg/cmd"
	"github.com/troupe-dev/troupe/pkg/log"
	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/pool"
	"github.com/troupe-dev/troupe/pkg/workflow"
)

type stepDefinition struct {
	ID        string         `json:"id"`
	AgentType string         `json:"agent_type"`
	TaskType  string         `json:"task_type"`
	Input     map[string]any `json:"input,omitempty"`
	DependsOn []string       `json:"depends_on,omitempty"`
}

type workflowDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Steps       []stepDefinition `json:"steps"`
}

func main() {
	logger := log.WithModule("troupe-run")

	command := &cli.Command{
		Name:                  "troupe-run",
		Usage:                 "Run a workflow definition file to completion",
		EnableShellCompletion: true,
		ArgsUsage:             "<workflow.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			path := command.Args().First()
			if path == "" {
				return cli.Exit("workflow definition file is required", 2)
			}

			w, err := loadDefinition(path)
			if err != nil {
				return err
			}

			registry := cmd.NewRegistry(logger)
			agentPool := pool.NewPool(registry, logger)
			executor := workflow.NewStepExecutor(agentPool, nil, logger)
			scheduler := workflow.NewScheduler(executor, nil, logger)

			result := scheduler.Run(ctx, w)

			output, err := json.MarshalIndent(map[string]any{
				"workflow_id": result.WorkflowID,
				"status":      result.Status,
				"results":     result.Results,
				"steps":       w.Report(),
			}, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(output))

			if result.Status != models.WorkflowStatusCompleted {
				return cli.Exit("workflow finished with errors", 1)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func loadDefinition(path string) (*models.Workflow, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow definition: %w", err)
	}

	var def workflowDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow definition: %w", err)
	}

	w := models.NewWorkflow(def.Name, def.Description)

	for _, sd := range def.Steps {
		step := models.NewStep(sd.AgentType, sd.TaskType, sd.Input, sd.DependsOn)
		if sd.ID != "" {
			step.ID = sd.ID
		}

		w.AddStep(step)
	}

	return w, nil
}
