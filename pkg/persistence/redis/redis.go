// Package redis provides Redis-backed persistence for workflows, one JSON
// document per workflow under the troupe:workflows key prefix.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/persistence"
)

const (
	workflowKeyPrefix = "troupe:workflows:"
	pingTimeout       = 5 * time.Second
)

// Persistence implements persistence.Persistence on a Redis server.
type Persistence struct {
	client redis.UniversalClient
}

// NewPersistence connects to the Redis server described by url,
// e.g. redis://localhost:6379/0.
func NewPersistence(url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Persistence{client: client}, nil
}

func workflowKey(id string) string {
	return workflowKeyPrefix + id
}

func (rp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows := make([]*models.Workflow, 0)

	iter := rp.client.Scan(ctx, 0, workflowKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), workflowKeyPrefix)

		workflow, err := rp.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan workflow keys: %w", err)
	}

	return workflows, nil
}

func (rp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	body, err := rp.client.Get(ctx, workflowKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal([]byte(body), &workflow); err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return &workflow, nil
}

func (rp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	body, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	if err := rp.client.Set(ctx, workflowKey(workflow.ID), body, 0).Err(); err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (rp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	deleted, err := rp.client.Del(ctx, workflowKey(id)).Result()
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	if deleted == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (rp *Persistence) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return rp.client.Ping(ctx).Err()
}

func (rp *Persistence) Close(_ context.Context) error {
	return rp.client.Close()
}
