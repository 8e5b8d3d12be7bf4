package postgres

import (
	"strings"
	"testing"
)

func TestSteps_AreIdempotent(t *testing.T) {
	for _, s := range Steps {
		sql := strings.ToUpper(s.SQL)
		switch {
		case strings.Contains(sql, "CREATE TABLE") && !strings.Contains(sql, "IF NOT EXISTS"):
			t.Errorf("step %q creates a table without IF NOT EXISTS", s.Name)
		case strings.Contains(sql, "CREATE INDEX") && !strings.Contains(sql, "IF NOT EXISTS"):
			t.Errorf("step %q creates an index without IF NOT EXISTS", s.Name)
		case strings.Contains(sql, "CREATE FUNCTION"):
			t.Errorf("step %q should use CREATE OR REPLACE FUNCTION", s.Name)
		}
	}
}

func TestSteps_ReservationsTableRejectsOverlap(t *testing.T) {
	var found bool
	for _, s := range Steps {
		if strings.Contains(s.SQL, "EXCLUDE USING gist") {
			found = strings.Contains(s.SQL, "tstzrange(start_time, end_time, '[)') WITH &&")
		}
	}
	if !found {
		t.Errorf("reservations table must carry a half-open range exclusion constraint")
	}
}
