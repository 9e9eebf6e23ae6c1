package services

import (
	"time"

	"fabric_pos_backend/internal/repositories"
)

// ReportService exposes the dashboard snapshot.
type ReportService interface {
	GetDashboardStats() (*repositories.DashboardStats, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(reportRepo repositories.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

func (s *reportService) GetDashboardStats() (*repositories.DashboardStats, error) {
	return s.reportRepo.GetDashboardStats(time.Now())
}
