package application

import (
	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/infrastructure/audit"
	"github.com/monorel/monorel/infrastructure/graph"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// AuditService runs the configured audit sections over the workspace.
type AuditService struct {
	ws  *workspace.Workspace
	g   *graph.Graph
	cfg *config.Config
}

// NewAuditService creates the service.
func NewAuditService(ws *workspace.Workspace, g *graph.Graph, cfg *config.Config) *AuditService {
	return &AuditService{ws: ws, g: g, cfg: cfg}
}

// Run executes the audit and returns the report.
func (s *AuditService) Run() *audit.Report {
	return audit.New(s.ws, s.g, s.cfg).Run()
}

// Workspace exposes the audited workspace for rendering.
func (s *AuditService) Workspace() *workspace.Workspace { return s.ws }
