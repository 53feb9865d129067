package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wipeout_enterprise/internal/wipe"
)

func sampleResult(status string) *wipe.WipeResult {
	now := time.Now().UTC()
	return &wipe.WipeResult{
		OperationID:     "op-" + status,
		Algorithm:       "nist",
		PassesPlanned:   3,
		PassesCompleted: 3,
		StartTime:       now.Add(-time.Minute),
		EndTime:         now,
		Duration:        time.Minute.String(),
		Status:          status,
		TotalBytes:      1024 * 1024,
		BytesWiped:      1024 * 1024,
	}
}

func TestGenerateReportSummary(t *testing.T) {
	ops := []*wipe.WipeResult{
		sampleResult(wipe.StatusSuccess),
		sampleResult(wipe.StatusSuccess),
		sampleResult(wipe.StatusPartial),
		sampleResult(wipe.StatusCancelled),
		sampleResult(wipe.StatusFailed),
	}
	ops[2].ErrorCount = 4

	start := time.Now().Add(-5 * time.Minute)
	report := GenerateReport(ops, start, time.Now(), 2)

	require.Equal(t, Version, report.Version)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, 2, report.ExitCode)
	require.Len(t, report.Operations, 5)

	require.Equal(t, 5, report.Summary.TotalTargets)
	require.Equal(t, 2, report.Summary.Success)
	require.Equal(t, 1, report.Summary.Partial)
	require.Equal(t, 1, report.Summary.Cancelled)
	require.Equal(t, 1, report.Summary.Failed)
	require.Equal(t, 4, report.Summary.TotalErrors)
	require.Equal(t, uint64(5*1024*1024), report.Summary.TotalBytes)
	require.InDelta(t, 40.0, report.Summary.SuccessRate, 0.01)

	require.NotEmpty(t, report.Environment.OS)
	require.NotEmpty(t, report.Environment.Architecture)
}

func TestGenerateReportEmpty(t *testing.T) {
	report := GenerateReport(nil, time.Now(), time.Now(), 0)
	require.Zero(t, report.Summary.TotalTargets)
	require.Zero(t, report.Summary.SuccessRate)
}

func TestSaveLoadValidateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := GenerateReport([]*wipe.WipeResult{sampleResult(wipe.StatusSuccess)},
		time.Now().Add(-time.Minute), time.Now(), 0)

	path, err := SaveReport(report, dir)
	require.NoError(t, err)
	require.FileExists(t, path)

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	require.Equal(t, report.RunID, loaded.RunID)
	require.Equal(t, report.Summary, loaded.Summary)
	require.Len(t, loaded.Operations, 1)
	require.Equal(t, "op-SUCCESS", loaded.Operations[0].OperationID)

	require.NoError(t, ValidateReport(loaded))
}

func TestValidateReportRejections(t *testing.T) {
	valid := func() *Report {
		return GenerateReport([]*wipe.WipeResult{sampleResult(wipe.StatusSuccess)},
			time.Now().Add(-time.Minute), time.Now(), 0)
	}

	report := valid()
	report.RunID = ""
	require.Error(t, ValidateReport(report))

	report = valid()
	report.Operations = nil
	require.Error(t, ValidateReport(report))

	report = valid()
	report.Operations[0].OperationID = ""
	require.Error(t, ValidateReport(report))

	report = valid()
	report.Operations[0].Status = ""
	require.Error(t, ValidateReport(report))

	report = valid()
	report.Operations[0].EndTime = time.Time{}
	require.Error(t, ValidateReport(report))
}

func TestLoadReportMissingFile(t *testing.T) {
	_, err := LoadReport("/nonexistent/report.json")
	require.Error(t, err)
}
