package filter

import (
	"testing"
	"time"
)

func TestParseFollowUpFilterEmpty(t *testing.T) {
	t.Parallel()

	cond, err := ParseFollowUpFilter("   ")
	if err != nil {
		t.Fatalf("parse empty filter: %v", err)
	}
	if !cond.Empty() || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseFollowUpFilterTranslatesComparisons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantClause string
		wantParams []any
	}{
		{
			name:       "status equals",
			raw:        `status = "SENT"`,
			wantClause: "status = ?",
			wantParams: []any{"SENT"},
		},
		{
			name:       "type maps to column",
			raw:        `type != "MANUAL"`,
			wantClause: "follow_up_type != ?",
			wantParams: []any{"MANUAL"},
		},
		{
			name:       "escalation level",
			raw:        `escalation_level >= 1`,
			wantClause: "escalation_level >= ?",
			wantParams: []any{int64(1)},
		},
		{
			name:       "and",
			raw:        `status = "PENDING" AND initiated_by = "SYSTEM"`,
			wantClause: "(status = ? AND initiated_by = ?)",
			wantParams: []any{"PENDING", "SYSTEM"},
		},
		{
			name:       "or",
			raw:        `status = "SENT" OR status = "PENDING"`,
			wantClause: "(status = ? OR status = ?)",
			wantParams: []any{"SENT", "PENDING"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cond, err := ParseFollowUpFilter(tc.raw)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.raw, err)
			}
			if cond.Clause != tc.wantClause {
				t.Fatalf("clause = %q, want %q", cond.Clause, tc.wantClause)
			}
			if len(cond.Params) != len(tc.wantParams) {
				t.Fatalf("params = %v, want %v", cond.Params, tc.wantParams)
			}
			for i := range tc.wantParams {
				if cond.Params[i] != tc.wantParams[i] {
					t.Fatalf("params[%d] = %#v, want %#v", i, cond.Params[i], tc.wantParams[i])
				}
			}
		})
	}
}

func TestParseFollowUpFilterTimestampBecomesMillis(t *testing.T) {
	t.Parallel()

	cond, err := ParseFollowUpFilter(`created_at < timestamp("2026-03-01T09:00:00Z")`)
	if err != nil {
		t.Fatalf("parse timestamp filter: %v", err)
	}
	if cond.Clause != "created_at < ?" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	want := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).UnixMilli()
	if len(cond.Params) != 1 || cond.Params[0] != want {
		t.Fatalf("params = %v, want [%d]", cond.Params, want)
	}
}

func TestParseFollowUpFilterRejectsUnknownField(t *testing.T) {
	t.Parallel()

	if _, err := ParseFollowUpFilter(`vendor_name = "Acme"`); err == nil {
		t.Fatal("expected unknown field error")
	}
}
