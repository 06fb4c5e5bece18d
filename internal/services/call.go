package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/dbctx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type CallRecordInput struct {
	LeadID          uint
	CallID          string
	Transcript      string
	Summary         string
	Sentiment       string
	DurationSeconds int
	Intent          string
	// AgentConfidence is a 0..1 score. Senders reporting a percentage are
	// rescaled on write.
	AgentConfidence float64
}

type CallService interface {
	// Record stores a call once per external call id. A redelivered call
	// returns the stored row with created=false.
	Record(ctx context.Context, in CallRecordInput) (rec *crm.CallRecord, created bool, err error)
	List(ctx context.Context, f repos.CallRecordFilter) ([]*crm.CallRecord, int64, error)
}

type callService struct {
	log   *logger.Logger
	calls repos.CallRecordRepo
}

func NewCallService(log *logger.Logger, calls repos.CallRecordRepo) CallService {
	return &callService{log: log.With("service", "CallService"), calls: calls}
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case crm.SentimentPositive:
		return crm.SentimentPositive
	case crm.SentimentNegative:
		return crm.SentimentNegative
	case "":
		return ""
	}
	return crm.SentimentNeutral
}

func (s *callService) Record(ctx context.Context, in CallRecordInput) (*crm.CallRecord, bool, error) {
	if in.LeadID == 0 {
		return nil, false, badRequest("invalid_lead_id", fmt.Errorf("lead_id required"))
	}
	callID := strings.TrimSpace(in.CallID)
	if callID == "" {
		return nil, false, badRequest("invalid_call_id", fmt.Errorf("call_id required"))
	}
	dbc := dbctx.From(ctx)
	if existing, err := s.calls.GetByCallID(dbc, callID); err != nil {
		return nil, false, internal("call_lookup_failed", err)
	} else if existing != nil {
		return existing, false, nil
	}
	conf := normalizeConfidence(in.AgentConfidence)
	rec := &crm.CallRecord{
		LeadID:          in.LeadID,
		CallID:          callID,
		Transcript:      in.Transcript,
		Summary:         in.Summary,
		Sentiment:       normalizeSentiment(in.Sentiment),
		DurationSeconds: in.DurationSeconds,
		Intent:          strings.ToLower(strings.TrimSpace(in.Intent)),
		AgentConfidence: conf,
	}
	if err := s.calls.Create(dbc, rec); err != nil {
		if aggregates.IsUniqueViolation(err) {
			existing, lookupErr := s.calls.GetByCallID(dbc, callID)
			if lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, internal("call_create_failed", err)
	}
	return rec, true, nil
}

func (s *callService) List(ctx context.Context, f repos.CallRecordFilter) ([]*crm.CallRecord, int64, error) {
	out, total, err := s.calls.List(dbctx.From(ctx), f)
	if err != nil {
		return nil, 0, internal("call_list_failed", err)
	}
	return out, total, nil
}

func normalizeConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v > 1:
		v /= 100
	}
	return math.Min(v, 1)
}
