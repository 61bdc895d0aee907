// Package pool manages reusable agent instances keyed by capability type.
package pool

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/protocol"
	"github.com/troupe-dev/troupe/pkg/registry"
)

type entry struct {
	info  models.AgentInfo
	agent protocol.Agent
}

// Pool is a registry of live agent instances. Acquire hands out the first
// idle instance of the requested type, creating one through the capability
// registry when none is available. Entries persist across workflow
// executions.
//
// The pool enforces no upper bound on growth; bounding total agents is the
// caller's responsibility.
type Pool struct {
	logger   *slog.Logger
	registry *registry.Registry

	mu      sync.Mutex
	entries []*entry
	created int
}

func NewPool(reg *registry.Registry, logger *slog.Logger) *Pool {
	return &Pool{
		logger:   logger.With("module", "agent_pool"),
		registry: reg,
	}
}

// Lease is an exclusive claim on one agent instance. Callers must Release
// when the task settles so the entry becomes assignable again.
type Lease struct {
	pool    *Pool
	entry   *entry
	created bool
}

// Agent returns the leased agent instance.
func (l *Lease) Agent() protocol.Agent {
	return l.entry.agent
}

// AgentID returns the pool id of the leased instance.
func (l *Lease) AgentID() string {
	return l.entry.info.ID
}

// Created reports whether this lease caused a new instance to be created
// rather than reusing an idle one.
func (l *Lease) Created() bool {
	return l.created
}

// Acquire claims an idle agent of the given type, creating one when none is
// idle. The idle-scan plus possible insert is a single critical section so
// two concurrent executors can never claim the same entry.
func (p *Pool) Acquire(agentType string) (*Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.info.Type == agentType && e.info.Status == models.AgentStatusIdle {
			e.info.Status = models.AgentStatusRunning

			return &Lease{pool: p, entry: e}, nil
		}
	}

	agent, err := p.registry.CreateAgent(agentType, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent of type %q: %w", agentType, err)
	}

	e := &entry{
		info: models.AgentInfo{
			ID:     agentType + "-" + uuid.New().String()[:8],
			Type:   agentType,
			Status: models.AgentStatusRunning,
		},
		agent: agent,
	}
	p.entries = append(p.entries, e)
	p.created++

	p.logger.Info("Created agent instance", "agent_id", e.info.ID, "agent_type", agentType)

	return &Lease{pool: p, entry: e, created: true}, nil
}

// Release returns the leased entry to the idle state. Safe to call once per
// lease.
func (l *Lease) Release() {
	l.pool.mu.Lock()
	defer l.pool.mu.Unlock()

	l.entry.info.Status = models.AgentStatusIdle
}

// Agents returns a snapshot of all pool entries.
func (p *Pool) Agents() []models.AgentInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	infos := make([]models.AgentInfo, 0, len(p.entries))
	for _, e := range p.entries {
		infos = append(infos, e.info)
	}

	return infos
}

// Size returns the number of live agent instances.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries)
}

// CreatedCount returns how many instances the pool has synthesized so far.
func (p *Pool) CreatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.created
}
