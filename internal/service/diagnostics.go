package service

import (
	"context"
	"tender-aggregator-api/internal/repo"
)

type DiagnosticsService struct {
	diagnosticsRepo repo.Diagnostics
}

func NewDiagnosticsService(repos *repo.Repositories) *DiagnosticsService {
	return &DiagnosticsService{repos.Diagnostics}
}

func (s *DiagnosticsService) Ping(ctx context.Context) error {
	return s.diagnosticsRepo.Ping(ctx)
}
