// Package stats derives record statistics, per-table breakdowns and action
// counts from a parsed SOP document.
//
// Every function is pure: it reads the records once and returns fresh values
// that hold no reference back to the document.
package stats

import (
	"slices"
	"sort"

	"github.com/arloliu/sopkit/document"
)

// DeleteAction is the action value counted by RecordStats.Deletes.
const DeleteAction = "delete"

// Source supplies the records to aggregate. *document.Document implements it.
type Source interface {
	Records() []document.Record
}

var _ Source = (*document.Document)(nil)

// RecordStats holds document-wide record counters.
type RecordStats struct {
	Total            int
	Deletes          int
	StrongOverwrites int
}

// TableInfo describes the records that target one table.
type TableInfo struct {
	Name        string
	RecordCount int
	// Actions maps action name to record count within the table.
	Actions map[string]int

	actionOrder []string
}

// ActionNames returns the table's action names in the order they first appear
// in the document.
func (t TableInfo) ActionNames() []string {
	if t.actionOrder != nil {
		return slices.Clone(t.actionOrder)
	}

	names := make([]string, 0, len(t.Actions))
	for name := range t.Actions {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ActionsSummary maps action name to record count across the whole document.
type ActionsSummary map[string]int

// SortedNames returns the action names in lexical order.
func (s ActionsSummary) SortedNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Total returns the sum of all counts.
func (s ActionsSummary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}

	return total
}

// ComputeRecordStats counts records, delete actions and strong overwrites.
// Only the exact action string "delete" and the JSON literal true count.
func ComputeRecordStats(src Source) RecordStats {
	records := src.Records()
	stats := RecordStats{Total: len(records)}

	for _, r := range records {
		if r.Action() == DeleteAction {
			stats.Deletes++
		}
		if r.IsStrongOverwrite() {
			stats.StrongOverwrites++
		}
	}

	return stats
}

// ComputeTableInfo groups records by table name. The result is ordered by
// record count, highest first; tables with equal counts keep the order in which
// they first appear.
func ComputeTableInfo(src Source) []TableInfo {
	var tables []TableInfo
	index := make(map[string]int)

	for _, r := range src.Records() {
		name := r.TableName()
		i, ok := index[name]
		if !ok {
			i = len(tables)
			index[name] = i
			tables = append(tables, TableInfo{Name: name, Actions: make(map[string]int)})
		}

		t := &tables[i]
		t.RecordCount++
		action := r.Action()
		if _, seen := t.Actions[action]; !seen {
			t.actionOrder = append(t.actionOrder, action)
		}
		t.Actions[action]++
	}

	sort.SliceStable(tables, func(a, b int) bool {
		return tables[a].RecordCount > tables[b].RecordCount
	})

	if tables == nil {
		return []TableInfo{}
	}

	return tables
}

// ComputeActionsSummary counts records per action.
func ComputeActionsSummary(src Source) ActionsSummary {
	summary := make(ActionsSummary)
	for _, r := range src.Records() {
		summary[r.Action()]++
	}

	return summary
}
