package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/sopkit/errs"
	"github.com/arloliu/sopkit/format"
	"github.com/arloliu/sopkit/internal/fixture"
	"github.com/arloliu/sopkit/report"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func samplePackage(t *testing.T) string {
	t.Helper()

	archive, err := fixture.PackageOf(format.CompressionZlib, []byte(fixture.SamplePayload))
	require.NoError(t, err)
	path, err := fixture.WriteFile(t.TempDir(), "test.sop", archive)
	require.NoError(t, err)

	return path
}

func brokenPackage(t *testing.T) string {
	t.Helper()

	archive, err := fixture.Archive(fixture.Entry{Name: "broken.data", Data: bytes.Repeat([]byte{0xff}, 12)})
	require.NoError(t, err)
	path, err := fixture.WriteFile(t.TempDir(), "broken.sop", archive)
	require.NoError(t, err)

	return path
}

func isolateConfig(t *testing.T) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestFullReport(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, samplePackage(t))
	require.NoError(t, res.err)

	out := res.stdout
	assert.Contains(t, out, "PACKAGE METADATA")
	assert.Contains(t, out, "test_package")
	assert.Contains(t, out, "2024-01-15T10:30:00Z")
	assert.Contains(t, out, "RECORD STATISTICS")
	assert.Contains(t, out, "Total records: 4")
	assert.Contains(t, out, "Delete operations: 1")
	assert.Contains(t, out, "Strong overwrites: 1")
	assert.Contains(t, out, "insert: 2")
	assert.Contains(t, out, "TABLES")
	assert.Contains(t, out, "insert:1, delete:1")
	assert.NotContains(t, out, "Analysis ID")

	// users has the most records, so its row comes first.
	assert.Less(t, strings.Index(out, "users"), strings.Index(out, "products"))
	assert.Less(t, strings.Index(out, "products"), strings.Index(out, "orders"))
}

func TestVerbose(t *testing.T) {
	isolateConfig(t)
	path := samplePackage(t)
	res := runCLI(t, path, "--verbose")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, path)
	assert.Contains(t, res.stdout, "Strategy: zlib_inflate")
	assert.Contains(t, res.stdout, "Analysis ID")
	assert.Contains(t, res.stderr, "strategy=raw_inflate")
}

func TestSectionFlags(t *testing.T) {
	isolateConfig(t)
	path := samplePackage(t)

	tests := []struct {
		flag    string
		want    string
		notWant []string
	}{
		{flag: "--metadata", want: "PACKAGE METADATA", notWant: []string{"RECORD STATISTICS", "TABLES"}},
		{flag: "--stats", want: "RECORD STATISTICS", notWant: []string{"PACKAGE METADATA", "TABLES"}},
		{flag: "--tables", want: "TABLES", notWant: []string{"PACKAGE METADATA", "RECORD STATISTICS"}},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			res := runCLI(t, path, tt.flag)
			require.NoError(t, res.err)
			assert.Contains(t, res.stdout, tt.want)
			for _, s := range tt.notWant {
				assert.NotContains(t, res.stdout, s)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	isolateConfig(t)
	path := samplePackage(t)
	res := runCLI(t, path, "--json")
	require.NoError(t, res.err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rep))
	assert.Equal(t, "test_package", rep.Metadata.Name)
	assert.Equal(t, 4, rep.RecordStatistics.TotalRecords)
	assert.Equal(t, 1, rep.RecordStatistics.DeleteOperations)
	require.Len(t, rep.Tables, 3)
	assert.Equal(t, "users", rep.Tables[0].Name)
	assert.Equal(t, path, rep.FileInfo.FilePath)
	assert.NotEmpty(t, rep.FileInfo.AnalysisID)
}

func TestYAMLOutput(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, samplePackage(t), "--yaml")
	require.NoError(t, res.err)

	var rep report.Report
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &rep))
	assert.Equal(t, "test_app_123", rep.Metadata.PackApplicationID)
	assert.Equal(t, map[string]int{"insert": 2, "delete": 1, "update": 1}, rep.RecordStatistics.ActionsBreakdown)
}

func TestJSONAndYAMLAreExclusive(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, samplePackage(t), "--json", "--yaml")
	require.Error(t, res.err)
}

func TestDebugOutput(t *testing.T) {
	isolateConfig(t)
	path := samplePackage(t)

	res := runCLI(t, path, "--debug")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "DIAGNOSTIC INFORMATION")
	assert.Contains(t, res.stdout, "data_entry: package.data")
	assert.Contains(t, res.stdout, "manifest.json")

	res = runCLI(t, path, "--debug", "--json")
	require.NoError(t, res.err)
	var diag report.Diagnostics
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &diag))
	assert.Equal(t, fixture.DataEntryName, diag.DataEntry)
	assert.Equal(t, []string{"manifest.json", fixture.DataEntryName}, diag.Files)
	assert.Len(t, diag.FirstBytes, 20)
}

func TestFailureShowsDiagnostics(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, brokenPackage(t), "--json")
	require.ErrorIs(t, res.err, errs.ErrDecompressionExhausted)

	var reported *reportedError
	require.True(t, errors.As(res.err, &reported))

	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Error analyzing file")
	assert.Contains(t, res.stderr, "DIAGNOSTIC INFORMATION")
	assert.Contains(t, res.stderr, "ffffffffffffffffffff")
	assert.Contains(t, res.stderr, "broken.data")
}

func TestMissingFile(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, filepath.Join(t.TempDir(), "nonexistent.sop"))
	require.ErrorIs(t, res.err, errs.ErrNotFound)
	assert.Contains(t, res.err.Error(), "not found")
	assert.NotContains(t, res.stderr, "DIAGNOSTIC INFORMATION")
}

func TestExtendedStrategies(t *testing.T) {
	isolateConfig(t)
	path := brokenPackage(t)

	res := runCLI(t, path, "--verbose")
	require.ErrorIs(t, res.err, errs.ErrDecompressionExhausted)
	assert.Contains(t, res.stderr, "strategy=header_guess")
	assert.NotContains(t, res.stderr, "lz4_block")

	res = runCLI(t, path, "--verbose", "--extended")
	require.ErrorIs(t, res.err, errs.ErrDecompressionExhausted)
	assert.Contains(t, res.stderr, "strategy=zstd")
	assert.Contains(t, res.stderr, "strategy=s2")
	assert.Contains(t, res.stderr, "strategy=lz4_block")
}

func TestConfigFile(t *testing.T) {
	isolateConfig(t)
	cfgPath := filepath.Join(t.TempDir(), "sopkit.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: json\n"), 0o600))

	res := runCLI(t, samplePackage(t), "--config", cfgPath)
	require.NoError(t, res.err)
	require.True(t, json.Valid([]byte(res.stdout)))
}

func TestInvalidLogLevel(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, samplePackage(t), "--log-level", "loud")
	require.Error(t, res.err)
}

func TestArgsRequired(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t)
	require.Error(t, res.err)
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "version")
	require.NoError(t, res.err)
	require.Equal(t, "sopkit dev\n", res.stdout)
}

func TestRenderTable(t *testing.T) {
	out := renderTable(tableSpec{
		headers: []string{"Table", "Records"},
		rows:    [][]string{{"users", "2"}, {"orders"}},
		footer:  []string{"Total", "2"},
		aligns:  []columnAlignment{alignLeft, alignRight},
	})

	assert.Contains(t, out, "│ Table")
	assert.NotContains(t, out, "TABLE")
	assert.Contains(t, out, "│ Total")
	assert.NotContains(t, out, "TOTAL")
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "╭")
	assert.Empty(t, renderTable(tableSpec{}))
}

func TestTablesSection_HeadersAsWritten(t *testing.T) {
	isolateConfig(t)
	res := runCLI(t, samplePackage(t), "--tables")
	require.NoError(t, res.err)

	out := res.stdout
	assert.Contains(t, out, "│ Table")
	assert.Contains(t, out, "│ Records")
	assert.Contains(t, out, "│ Actions")
	assert.Contains(t, out, "│ Total")
	assert.NotContains(t, out, "RECORDS")
	assert.NotContains(t, out, "ACTIONS")
}
