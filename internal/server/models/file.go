package models

import "time"

// Risk is the classification label of an uploaded file.
type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// AllRisks lists every valid label in ascending severity.
var AllRisks = []Risk{RiskLow, RiskMedium, RiskHigh}

// Valid reports whether r is one of AllRisks.
func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// FileRecord describes one analyzed upload. The bytes live in the blob store
// under StorageKey. UserID is a weak reference: the owner may be deleted
// while the record stays. Risk is set once, at creation.
type FileRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Filename   string    `json:"filename"`
	Risk       Risk      `json:"risk"`
	StorageKey string    `json:"-"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"timestamp"`
}

// DashboardSummary holds per-owner upload counts; Total always equals
// High+Medium+Low.
type DashboardSummary struct {
	Total  int64 `json:"total_uploads"`
	High   int64 `json:"high_risk"`
	Medium int64 `json:"medium_risk"`
	Low    int64 `json:"low_risk"`
}
