package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"trailing semicolon", "SELECT 1;", "SELECT 1"},
		{"trailing semicolon and whitespace", "  SELECT 1 ;  ", "SELECT 1"},
		{"sql fence", "```sql\nSELECT id FROM gtw.ecu\n```", "SELECT id FROM gtw.ecu"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"uppercase fence tag", "```SQL\nSELECT 1\n```", "SELECT 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestIsReadOnlyAccepts(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"simple select", "SELECT * FROM gtw.vehicle LIMIT 100"},
		{"cte", "WITH recent AS (SELECT id FROM gtw.ecu) SELECT count(*) FROM recent"},
		{"update_date identifier", "SELECT * FROM gtw.ecu WHERE update_date > creation_date"},
		{"keyword inside string literal", "SELECT * FROM gtw.operation WHERE status = 'DELETE PENDING'"},
		{"keyword inside comment", "SELECT id FROM gtw.ecu -- drop old rows later"},
		{"column named created_by", "SELECT created_by, creation_date FROM bs.bs_device LIMIT 10"},
		{"mixed case", "Select Count(*) From gtw.knowledge_chunks"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, IsReadOnly(tc.sql), tc.sql)
		})
	}
}

func TestIsReadOnlyRejects(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"delete", "DELETE FROM gtw.ecu"},
		{"update", "UPDATE gtw.ecu SET active = false"},
		{"insert", "INSERT INTO gtw.ecu (id) VALUES (1)"},
		{"drop", "DROP TABLE gtw.ecu"},
		{"truncate", "TRUNCATE gtw.ecu"},
		{"multi statement", "SELECT 1; DELETE FROM gtw.ecu"},
		{"stacked after comment", "SELECT 1 /* x */; DROP TABLE gtw.ecu"},
		{"explain analyze", "EXPLAIN ANALYZE SELECT * FROM gtw.ecu"},
		{"set role", "SET ROLE admin"},
		{"copy out", "COPY gtw.ecu TO '/tmp/out.csv'"},
		{"cte hiding delete", "WITH del AS (DELETE FROM gtw.ecu RETURNING id) SELECT * FROM del"},
		{"select into trap via do", "DO $$ BEGIN NULL; END $$"},
		{"not a query", "hello there"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, IsReadOnly(tc.sql), tc.sql)
		})
	}
}

func TestSanitizeThenIsReadOnly(t *testing.T) {
	raw := "```sql\nSELECT serial FROM gtw.ecu WHERE active = true;\n```"
	sql := Sanitize(raw)
	assert.True(t, IsReadOnly(sql))
	assert.Equal(t, "SELECT serial FROM gtw.ecu WHERE active = true", sql)
}
