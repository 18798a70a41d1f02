package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSQL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SELECT count() FROM swaps", "SELECT count() FROM swaps"},
		{"  SELECT 1  ", "SELECT 1"},
		{"SELECT 1;", "SELECT 1"},
		{"```sql\nSELECT pair FROM swaps\n```", "SELECT pair FROM swaps"},
		{"```\nSELECT pair FROM swaps\n```", "SELECT pair FROM swaps"},
		{"sql\nSELECT 1", "SELECT 1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeSQL(tc.in), "input %q", tc.in)
	}
}

func TestValidateSQL(t *testing.T) {
	valid := []string{
		"SELECT count() FROM swaps",
		"SELECT pair, sum(amount_in) FROM swapdesk.swaps GROUP BY pair",
		"SELECT * FROM swaps WHERE timestamp >= now() - INTERVAL 24 HOUR",
	}
	for _, q := range valid {
		assert.NoError(t, validateSQL(q), "query %q", q)
	}

	invalid := []string{
		"",
		"DROP TABLE swaps",
		"INSERT INTO swaps VALUES (1)",
		"SELECT 1; SELECT 2",
		"SELECT * FROM swaps; DROP TABLE swaps",
		"SELECT count() FROM other_table",
		"UPDATE swaps SET pair = 'x'",
	}
	for _, q := range invalid {
		assert.Error(t, validateSQL(q), "query %q", q)
	}
}
