package agora

import (
	"context"
	"time"

	"github.com/jhchabran/agora/metrics"
)

// A ReportRecord is a report filed against a piece of content.
type ReportRecord struct {
	Type      ContentType `json:"type"`
	Reason    string      `json:"reason"`
	Timestamp int64       `json:"timestamp"`
}

// ReportedAt returns when the report was filed.
func (r *ReportRecord) ReportedAt() time.Time {
	return fromUnixMilli(r.Timestamp)
}

// ToggleHidden hides a piece of content, or shows it again if it was hidden. It returns
// true if the content is now hidden.
func (s *Store) ToggleHidden(ctx context.Context, id int64, ct ContentType) (bool, error) {
	if !ct.Moderated() {
		return false, unsupported("hidden", ct)
	}

	hidden, err := s.toggleFlag(ctx, hiddenKey, id, ct)
	if err != nil {
		return hidden, err
	}
	metrics.InteractionsTotal.WithLabelValues("hide", string(ct)).Inc()

	return hidden, nil
}

// IsHidden reports whether a piece of content is hidden.
func (s *Store) IsHidden(ctx context.Context, id int64, ct ContentType) bool {
	if !ct.Moderated() {
		return false
	}
	return s.hasFlag(ctx, hiddenKey, id, ct)
}

// Report files a report against a piece of content. A piece of content can only be
// reported once: Report returns false and leaves the first report untouched if there is
// already one.
func (s *Store) Report(ctx context.Context, id int64, ct ContentType, reason string) (bool, error) {
	if !ct.Moderated() {
		return false, unsupported("reported", ct)
	}

	reports, err := loadTable[ReportRecord](ctx, s, reportedKey)
	if err != nil {
		return false, err
	}
	key := recordKey(ct, id)
	if _, ok := reports[key]; ok {
		return false, nil
	}

	reports[key] = ReportRecord{Type: ct, Reason: reason, Timestamp: unixMilli(NowFunc())}
	if err := writeJSON(ctx, s, reportedKey, reports); err != nil {
		return false, err
	}
	metrics.InteractionsTotal.WithLabelValues("report", string(ct)).Inc()

	return true, nil
}

// IsReported reports whether a piece of content has been reported.
func (s *Store) IsReported(ctx context.Context, id int64, ct ContentType) bool {
	_, ok := s.ReportFor(ctx, id, ct)
	return ok
}

// ReportFor returns the report filed against a piece of content, if any.
func (s *Store) ReportFor(ctx context.Context, id int64, ct ContentType) (*ReportRecord, bool) {
	if !ct.Moderated() {
		return nil, false
	}

	r, ok := readTable[ReportRecord](ctx, s, reportedKey)[recordKey(ct, id)]
	if !ok {
		return nil, false
	}
	return &r, true
}
