package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"wipeout_enterprise/internal/wipe"
)

// Version приложения, попадает в отчёты и сертификаты
const Version = "1.0.0"

// Report представляет JSON отчёт о запуске
type Report struct {
	RunID       string            `json:"run_id"`
	Version     string            `json:"version"`
	Timestamp   time.Time         `json:"timestamp"`
	Environment EnvironmentInfo   `json:"environment"`
	Operations  []wipe.WipeResult `json:"operations"`
	Summary     SummaryReport     `json:"summary"`
	ExitCode    int               `json:"exit_code"`
	Duration    string            `json:"duration"`
}

// EnvironmentInfo — сведения об окружении запуска
type EnvironmentInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	Hostname     string `json:"hostname"`
	Username     string `json:"username"`
	Version      string `json:"engine_version"`
}

// SummaryReport представляет сводную информацию
type SummaryReport struct {
	TotalTargets int     `json:"total_targets"`
	Success      int     `json:"success"`
	Partial      int     `json:"partial"`
	Cancelled    int     `json:"cancelled"`
	Failed       int     `json:"failed"`
	TotalBytes   uint64  `json:"total_bytes"`
	TotalErrors  int     `json:"total_errors"`
	SuccessRate  float64 `json:"success_rate"`
}

// GenerateReport генерирует отчёт о запуске по результатам операций
func GenerateReport(operations []*wipe.WipeResult, startTime, endTime time.Time, exitCode int) *Report {
	report := &Report{
		RunID:       fmt.Sprintf("run_%d", startTime.UnixNano()),
		Version:     Version,
		Timestamp:   startTime.UTC(),
		Environment: environmentInfo(),
		Operations:  make([]wipe.WipeResult, 0, len(operations)),
		ExitCode:    exitCode,
		Duration:    endTime.Sub(startTime).String(),
	}

	summary := SummaryReport{TotalTargets: len(operations)}
	for _, op := range operations {
		if op == nil {
			continue
		}
		report.Operations = append(report.Operations, *op)
		summary.TotalBytes += op.BytesWiped
		summary.TotalErrors += op.ErrorCount

		switch op.Status {
		case wipe.StatusSuccess:
			summary.Success++
		case wipe.StatusPartial:
			summary.Partial++
		case wipe.StatusCancelled:
			summary.Cancelled++
		default:
			summary.Failed++
		}
	}

	if summary.TotalTargets > 0 {
		summary.SuccessRate = float64(summary.Success) / float64(summary.TotalTargets) * 100
	}
	report.Summary = summary

	return report
}

func environmentInfo() EnvironmentInfo {
	hostname, _ := os.Hostname()
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}

	return EnvironmentInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		Hostname:     hostname,
		Username:     username,
		Version:      Version,
	}
}

// SaveReport сохраняет отчёт в директорию, возвращает путь файла
func SaveReport(report *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("wipe_report_%s.json", report.RunID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// LoadReport загружает отчёт из файла
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file %s: %w", path, err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report file %s: %w", path, err)
	}

	return &report, nil
}

// ValidateReport проверяет структуру отчёта для команды verify-report
func ValidateReport(report *Report) error {
	if report.RunID == "" {
		return fmt.Errorf("report is missing run_id")
	}
	if report.Version == "" {
		return fmt.Errorf("report is missing version")
	}
	if report.Timestamp.IsZero() {
		return fmt.Errorf("report is missing timestamp")
	}
	if len(report.Operations) == 0 {
		return fmt.Errorf("report contains no operations")
	}

	for i, op := range report.Operations {
		if op.OperationID == "" {
			return fmt.Errorf("operation %d is missing operation_id", i)
		}
		if op.Algorithm == "" {
			return fmt.Errorf("operation %d is missing algorithm", i)
		}
		if op.Status == "" {
			return fmt.Errorf("operation %d is missing status", i)
		}
		if op.StartTime.IsZero() || op.EndTime.IsZero() {
			return fmt.Errorf("operation %d is missing timestamps", i)
		}
	}

	return nil
}
