// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/troupe-dev/troupe/pkg/agents/echo"
	"github.com/troupe-dev/troupe/pkg/agents/httpcall"
	"github.com/troupe-dev/troupe/pkg/agents/transform"
	"github.com/troupe-dev/troupe/pkg/registry"
)

func registerNativeAgents(reg *registry.Registry) {
	reg.RegisterAgent(echo.NewAgentFactory())
	reg.RegisterAgent(httpcall.NewAgentFactory())
	reg.RegisterAgent(transform.NewAgentFactory())
}

// NewRegistry builds the capability registry with all native agent types.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeAgents(reg)

	return reg
}
