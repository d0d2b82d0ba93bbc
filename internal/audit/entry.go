// Package audit builds the content-addressed audit entries the engine
// writes for every record tag mutation. Entry IDs are deterministic hashes
// of the entry's canonical JSON, so re-running an identical operation
// produces identical entries and duplicate writes can be detected.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Domain prefix for content-addressed entry IDs. The version suffix
// enables future algorithm migration.
const domainEntry = "resultsd/audit/v1"

// Op identifies what happened to a tag.
type Op string

const (
	OpAssign     Op = "assign"     // tag set on a newly computed result
	OpInvalidate Op = "invalidate" // tag cleared by a better earlier result
	OpDowngrade  Op = "downgrade"  // tag reduced to a narrower scope
	OpRestore    Op = "restore"    // tag regained after a holder disappeared
	OpClear      Op = "clear"      // tag cleared by the result's own change
)

// Entry is one audit record. Detail carries operation-specific context
// (the triggering result, the pass scope, the baseline value).
type Entry struct {
	ID       string
	ResultID string
	Metric   string
	Op       Op
	OldTag   string
	NewTag   string
	Date     time.Time
	Detail   map[string]any
}

// New builds an entry and computes its content-addressed ID.
func New(resultID, metric string, op Op, oldTag, newTag string, date time.Time, detail map[string]any) (*Entry, error) {
	if detail == nil {
		detail = map[string]any{}
	}
	e := &Entry{
		ResultID: resultID,
		Metric:   metric,
		Op:       op,
		OldTag:   oldTag,
		NewTag:   newTag,
		Date:     date,
		Detail:   detail,
	}

	obj := map[string]any{
		"result_id": e.ResultID,
		"metric":    e.Metric,
		"op":        string(e.Op),
		"old_tag":   e.OldTag,
		"new_tag":   e.NewTag,
		"date":      e.Date.Format("2006-01-02"),
		"detail":    detailToAny(detail),
	}
	canonical, err := marshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("audit entry: %w", err)
	}
	e.ID = hashWithDomain(domainEntry, canonical)
	return e, nil
}

// DetailJSON returns the canonical JSON of the detail map for storage.
func (e *Entry) DetailJSON() (string, error) {
	data, err := marshalCanonical(detailToAny(e.Detail))
	if err != nil {
		return "", fmt.Errorf("audit detail: %w", err)
	}
	return string(data), nil
}

func detailToAny(detail map[string]any) map[string]any {
	if detail == nil {
		return map[string]any{}
	}
	return detail
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data); the null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
