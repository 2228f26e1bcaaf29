package stats

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/sopkit/document"
)

func parse(t testing.TB, payload string) *document.Document {
	t.Helper()

	doc, err := document.Parse([]byte(payload))
	require.NoError(t, err)

	return doc
}

const fourRecords = `{"records": [
	{"table_name": "users", "action": "insert", "is_strong_overwrite": false},
	{"table_name": "users", "action": "delete", "is_strong_overwrite": false},
	{"table_name": "products", "action": "update", "is_strong_overwrite": true},
	{"table_name": "orders", "action": "insert", "is_strong_overwrite": false}
]}`

func TestFourRecordScenario(t *testing.T) {
	doc := parse(t, fourRecords)

	require.Equal(t, RecordStats{Total: 4, Deletes: 1, StrongOverwrites: 1}, ComputeRecordStats(doc))
	require.Equal(t, ActionsSummary{"insert": 2, "delete": 1, "update": 1}, ComputeActionsSummary(doc))

	tables := ComputeTableInfo(doc)
	require.Len(t, tables, 3)

	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, 2, tables[0].RecordCount)
	assert.Equal(t, map[string]int{"insert": 1, "delete": 1}, tables[0].Actions)
	assert.Equal(t, []string{"insert", "delete"}, tables[0].ActionNames())

	// products and orders tie at one record; first appearance decides.
	assert.Equal(t, "products", tables[1].Name)
	assert.Equal(t, map[string]int{"update": 1}, tables[1].Actions)
	assert.Equal(t, "orders", tables[2].Name)
	assert.Equal(t, map[string]int{"insert": 1}, tables[2].Actions)
}

func TestEmptyDocument(t *testing.T) {
	for _, payload := range []string{`{}`, `{"records": []}`, `{"records": null}`} {
		doc := parse(t, payload)

		require.Equal(t, RecordStats{}, ComputeRecordStats(doc))
		require.Empty(t, ComputeActionsSummary(doc))
		tables := ComputeTableInfo(doc)
		require.NotNil(t, tables)
		require.Empty(t, tables)
	}
}

func TestDefaultsApplyToMissingFields(t *testing.T) {
	doc := parse(t, `{"records": [{}, {"action": "delete"}, {"table_name": "users"}]}`)

	require.Equal(t, ActionsSummary{document.Unknown: 2, "delete": 1}, ComputeActionsSummary(doc))

	tables := ComputeTableInfo(doc)
	require.Len(t, tables, 2)
	assert.Equal(t, document.Unknown, tables[0].Name)
	assert.Equal(t, 2, tables[0].RecordCount)
	assert.Equal(t, map[string]int{document.Unknown: 1, "delete": 1}, tables[0].Actions)
	assert.Equal(t, "users", tables[1].Name)

	require.Equal(t, 1, ComputeRecordStats(doc).Deletes)
}

func TestStrongOverwriteRequiresBooleanTrue(t *testing.T) {
	doc := parse(t, `{"records": [
		{"is_strong_overwrite": true},
		{"is_strong_overwrite": "true"},
		{"is_strong_overwrite": 1},
		{"is_strong_overwrite": "yes"},
		{}
	]}`)

	require.Equal(t, 1, ComputeRecordStats(doc).StrongOverwrites)
}

func TestDeleteMatchIsExact(t *testing.T) {
	doc := parse(t, `{"records": [
		{"action": "delete"},
		{"action": "DELETE"},
		{"action": "delete "},
		{"action": "soft_delete"}
	]}`)

	require.Equal(t, 1, ComputeRecordStats(doc).Deletes)
}

func TestTableOrdering(t *testing.T) {
	doc := parse(t, `{"records": [
		{"table_name": "a"},
		{"table_name": "b"},
		{"table_name": "c"},
		{"table_name": "c"},
		{"table_name": "b"},
		{"table_name": "d"},
		{"table_name": "c"}
	]}`)

	tables := ComputeTableInfo(doc)
	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
	}
	require.Equal(t, []string{"c", "b", "a", "d"}, names)
}

func generatedPayload(n int) string {
	actions := []string{"insert", "update", "delete", "upsert"}
	var sb strings.Builder
	sb.WriteString(`{"records": [`)
	for i := range n {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `{"table_name": "t%d", "action": %q, "is_strong_overwrite": %t}`,
			(i*7)%13, actions[(i*3)%len(actions)], i%5 == 0)
	}
	sb.WriteString(`]}`)

	return sb.String()
}

func TestSumInvariants(t *testing.T) {
	for _, n := range []int{0, 1, 2, 13, 100, 1000} {
		t.Run(fmt.Sprintf("records_%d", n), func(t *testing.T) {
			doc := parse(t, generatedPayload(n))
			rs := ComputeRecordStats(doc)
			require.Equal(t, n, rs.Total)

			require.Equal(t, rs.Total, ComputeActionsSummary(doc).Total())

			tableTotal := 0
			for _, tbl := range ComputeTableInfo(doc) {
				tableTotal += tbl.RecordCount
				actionTotal := 0
				for _, c := range tbl.Actions {
					actionTotal += c
				}
				require.Equal(t, tbl.RecordCount, actionTotal, tbl.Name)
			}
			require.Equal(t, rs.Total, tableTotal)
		})
	}
}

func TestDeterminism(t *testing.T) {
	doc := parse(t, generatedPayload(500))

	first := ComputeTableInfo(doc)
	for range 20 {
		require.Equal(t, first, ComputeTableInfo(doc))
		require.Equal(t, ComputeActionsSummary(doc), ComputeActionsSummary(doc))
		require.Equal(t, ComputeRecordStats(doc), ComputeRecordStats(doc))
	}
}

func TestResultsAreIndependent(t *testing.T) {
	doc := parse(t, fourRecords)

	tables := ComputeTableInfo(doc)
	tables[0].Actions["insert"] = 100
	summary := ComputeActionsSummary(doc)
	summary["insert"] = 100

	require.Equal(t, 1, ComputeTableInfo(doc)[0].Actions["insert"])
	require.Equal(t, 2, ComputeActionsSummary(doc)["insert"])
}

type staticSource []document.Record

func (s staticSource) Records() []document.Record { return s }

func TestZeroRecordsUseDefaults(t *testing.T) {
	src := staticSource{{}, {}}

	require.Equal(t, RecordStats{Total: 2}, ComputeRecordStats(src))
	require.Equal(t, ActionsSummary{document.Unknown: 2}, ComputeActionsSummary(src))
}

func TestActionsSummary_SortedNames(t *testing.T) {
	s := ActionsSummary{"update": 1, "delete": 3, "insert": 2}
	require.Equal(t, []string{"delete", "insert", "update"}, s.SortedNames())
	require.Equal(t, 6, s.Total())
}

func TestTableInfo_ActionNamesWithoutOrder(t *testing.T) {
	info := TableInfo{Name: "users", Actions: map[string]int{"update": 1, "delete": 2}}
	require.Equal(t, []string{"delete", "update"}, info.ActionNames())
}

func BenchmarkComputeTableInfo(b *testing.B) {
	doc := parse(b, generatedPayload(10000))

	b.ResetTimer()
	for b.Loop() {
		_ = ComputeTableInfo(doc)
	}
}
