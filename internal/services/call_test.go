package services

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
)

func TestCallRecordConfidenceIsStoredAsFraction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lead := testutil.SeedLead(t, h.db)

	tests := []struct {
		callID string
		in     float64
		want   float64
	}{
		{"conf_fraction", 0.92, 0.92},
		{"conf_percent", 92, 0.92},
		{"conf_negative", -3, 0},
		{"conf_overflow", 9200, 1},
	}
	for _, tc := range tests {
		rec, created, err := h.calls.Record(ctx, CallRecordInput{LeadID: lead.ID, CallID: tc.callID, AgentConfidence: tc.in})
		if err != nil || !created {
			t.Fatalf("Record(%s): created=%v err=%v", tc.callID, created, err)
		}
		if diff := rec.AgentConfidence - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Record(%s) confidence = %v, want %v", tc.callID, rec.AgentConfidence, tc.want)
		}
	}

	got := h.dispatcher.Dispatch(ctx, QueryAgentPerformance)
	if strings.Contains(got, "9200") || !strings.Contains(got, "4 calls") {
		t.Fatalf("agent performance = %q", got)
	}
}
