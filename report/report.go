// Package report assembles the analysis report and the raw-data diagnostics of a
// SOP package and renders them as JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/sopkit/document"
	"github.com/arloliu/sopkit/stats"
)

// Metadata is the package-level information of a document.
type Metadata struct {
	Name              string  `json:"name" yaml:"name"`
	PackApplicationID string  `json:"pack_application_id" yaml:"pack_application_id"`
	Timestamp         *string `json:"timestamp" yaml:"timestamp"`
	Version           string  `json:"version" yaml:"version"`
}

// MetadataOf reads the metadata fields of doc, defaults applied.
func MetadataOf(doc *document.Document) Metadata {
	return Metadata{
		Name:              doc.Name(),
		PackApplicationID: doc.PackApplicationID(),
		Timestamp:         doc.Timestamp(),
		Version:           doc.Version(),
	}
}

// RecordStatistics is the record_statistics section of a report.
type RecordStatistics struct {
	TotalRecords     int            `json:"total_records" yaml:"total_records"`
	DeleteOperations int            `json:"delete_operations" yaml:"delete_operations"`
	StrongOverwrites int            `json:"strong_overwrites" yaml:"strong_overwrites"`
	ActionsBreakdown map[string]int `json:"actions_breakdown" yaml:"actions_breakdown"`
}

// Table is one entry of the tables section, in display order.
type Table struct {
	Name        string         `json:"name" yaml:"name"`
	RecordCount int            `json:"record_count" yaml:"record_count"`
	Actions     map[string]int `json:"actions" yaml:"actions"`
}

// FileInfo describes the analyzed file and the analysis run.
type FileInfo struct {
	FilePath     string    `json:"file_path" yaml:"file_path"`
	FileSize     int64     `json:"file_size" yaml:"file_size"`
	AnalysisDate time.Time `json:"analysis_date" yaml:"analysis_date"`
	// AnalysisID correlates a report with the log lines of the run that produced it.
	AnalysisID string `json:"analysis_id" yaml:"analysis_id"`
	// Strategy names the decompression strategy that recovered the payload.
	Strategy string `json:"decompression_strategy,omitempty" yaml:"decompression_strategy,omitempty"`
}

// NewFileInfo fills a FileInfo stamped with now and a fresh random analysis id.
func NewFileInfo(path string, size int64, strategy string, now time.Time) FileInfo {
	return FileInfo{
		FilePath:     path,
		FileSize:     size,
		AnalysisDate: now,
		AnalysisID:   uuid.NewString(),
		Strategy:     strategy,
	}
}

// Report is the full analysis result.
type Report struct {
	Metadata         Metadata         `json:"metadata" yaml:"metadata"`
	RecordStatistics RecordStatistics `json:"record_statistics" yaml:"record_statistics"`
	Tables           []Table          `json:"tables" yaml:"tables"`
	FileInfo         FileInfo         `json:"file_info" yaml:"file_info"`
}

// Build assembles a Report. Tables keep the order they are given in.
func Build(meta Metadata, rs stats.RecordStats, tables []stats.TableInfo, actions stats.ActionsSummary, fi FileInfo) Report {
	out := Report{
		Metadata: meta,
		RecordStatistics: RecordStatistics{
			TotalRecords:     rs.Total,
			DeleteOperations: rs.Deletes,
			StrongOverwrites: rs.StrongOverwrites,
			ActionsBreakdown: copyCounts(actions),
		},
		Tables:   make([]Table, len(tables)),
		FileInfo: fi,
	}

	for i, t := range tables {
		out.Tables[i] = Table{
			Name:        t.Name,
			RecordCount: t.RecordCount,
			Actions:     copyCounts(t.Actions),
		}
	}

	return out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// WriteJSON writes v as indented JSON followed by a newline. Non-ASCII text is
// written as is.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
