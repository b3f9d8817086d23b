package lead

import (
	"context"
	"log/slog"

	"docchat/types"
)

// RecordService is the external record-keeping system leads are forwarded
// to. FindByEmail returns "" when no record matches.
type RecordService interface {
	FindByEmail(ctx context.Context, email string) (string, error)
	Create(ctx context.Context, lead types.Lead) (id, link string, err error)
}

type Forwarder struct {
	records RecordService
	logger  *slog.Logger
}

func NewForwarder(records RecordService) *Forwarder {
	return &Forwarder{
		records: records,
		logger:  slog.Default().With("component", "forwarder"),
	}
}

// Forward sends the lead to the record service unless its email is absent
// or the sentinel, in which case it reports "skipped". An existing record
// with the same email short-circuits to "duplicate" without creating
// anything.
func (f *Forwarder) Forward(ctx context.Context, lead types.Lead) (types.ForwardResult, error) {
	if lead.Email == "" || lead.Email == SentinelEmail {
		f.logger.Info("lead forwarding skipped, no usable email")
		return types.ForwardResult{Status: types.ForwardSkipped}, nil
	}

	id, err := f.records.FindByEmail(ctx, lead.Email)
	if err != nil {
		return types.ForwardResult{}, err
	}
	if id != "" {
		f.logger.Info("lead already exists, skipping create", "id", id)
		return types.ForwardResult{Status: types.ForwardDuplicate, LeadID: id}, nil
	}

	id, link, err := f.records.Create(ctx, lead)
	if err != nil {
		return types.ForwardResult{}, err
	}
	f.logger.Info("lead created", "id", id)
	return types.ForwardResult{Status: types.ForwardCreated, LeadID: id, Link: link}, nil
}
