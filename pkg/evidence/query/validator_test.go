package query

import (
	"errors"
	"testing"
	"time"

	"switchboard-hq/switchboard/pkg/evidence"
)

func TestValidate(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	tests := []struct {
		name    string
		query   evidence.Query
		wantErr bool
	}{
		{"empty", evidence.Query{}, false},
		{"full", evidence.Query{StartTime: &early, EndTime: &late, State: "failed", Limit: 10, SortOrder: "asc"}, false},
		{"negative limit", evidence.Query{Limit: -1}, true},
		{"limit too large", evidence.Query{Limit: MaxLimit + 1}, true},
		{"negative offset", evidence.Query{Offset: -1}, true},
		{"bad sort", evidence.Query{SortOrder: "up"}, true},
		{"reversed range", evidence.Query{StartTime: &late, EndTime: &early}, true},
		{"bad state", evidence.Query{State: "caught"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			err := Validate(&q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var qe *evidence.QueryError
			if err != nil && !errors.As(err, &qe) {
				t.Errorf("error type = %T, want *evidence.QueryError", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &evidence.Query{}
	ApplyDefaults(q)
	if q.Limit != DefaultLimit || q.SortOrder != "desc" {
		t.Errorf("ApplyDefaults() = limit %d, sort %q", q.Limit, q.SortOrder)
	}

	q = &evidence.Query{Limit: 5, SortOrder: "asc"}
	ApplyDefaults(q)
	if q.Limit != 5 || q.SortOrder != "asc" {
		t.Errorf("ApplyDefaults() overwrote explicit values: %+v", q)
	}
}
