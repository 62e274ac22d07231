package report

import "context"

// ReportService defines the interface for report generation
type ReportService interface {
	// GetMonthlyAttendanceReport reconstructs every shift anchored in the month
	GetMonthlyAttendanceReport(ctx context.Context, req MonthlyAttendanceReportRequest) (MonthlyAttendanceReport, error)
}
