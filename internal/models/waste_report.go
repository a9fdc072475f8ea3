package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	WasteTypePlastic = "plastic"
	WasteTypeOrganic = "organic"
	WasteTypeMetal   = "metal"
	WasteTypeEWaste  = "e-waste"
	WasteTypeOther   = "other"
)

// Severity buckets. Numeric values are persisted.
const (
	AmountLow    = 1
	AmountMedium = 2
	AmountHigh   = 3
)

var wasteTypes = map[string]bool{
	WasteTypePlastic: true,
	WasteTypeOrganic: true,
	WasteTypeMetal:   true,
	WasteTypeEWaste:  true,
	WasteTypeOther:   true,
}

var amountByLabel = map[string]int{
	"low":    AmountLow,
	"medium": AmountMedium,
	"high":   AmountHigh,
}

// WasteReport is a geolocated sighting of waste, later flipped to collected
// exactly once.
type WasteReport struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ImageURL        string         `gorm:"type:text;not null" json:"image_url"`
	Latitude        float64        `gorm:"type:decimal(10,8);not null;index:idx_waste_reports_location,priority:1" json:"latitude"`
	Longitude       float64        `gorm:"type:decimal(11,8);not null;index:idx_waste_reports_location,priority:2" json:"longitude"`
	WasteType       string         `gorm:"size:20;not null" json:"waste_type"`
	Confidence      int            `gorm:"not null;check:confidence >= 0 AND confidence <= 100" json:"confidence"`
	Amount          int            `gorm:"not null;check:amount >= 1 AND amount <= 3" json:"amount"`
	Points          int            `gorm:"not null" json:"points"`
	Description     string         `gorm:"size:500" json:"description,omitempty"`
	Analysis        datatypes.JSON `gorm:"type:jsonb" json:"-"`
	Collected       bool           `gorm:"not null;default:false;index" json:"collected"`
	CollectedBy     *uuid.UUID     `gorm:"type:uuid" json:"collected_by,omitempty"`
	CollectedAt     *time.Time     `json:"collected_at,omitempty"`
	CollectionProof string         `gorm:"type:text" json:"collection_proof,omitempty"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NormalizeWasteType lower-cases t and maps anything outside the fixed
// category set to "other".
func NormalizeWasteType(t string) string {
	n := strings.ToLower(strings.TrimSpace(t))
	if wasteTypes[n] {
		return n
	}
	return WasteTypeOther
}

// AmountFromLabel maps low/medium/high to 1/2/3. Unknown labels fall back to
// the lowest severity; ok reports whether the label was recognized.
func AmountFromLabel(label string) (amount int, ok bool) {
	n, ok := amountByLabel[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return AmountLow, false
	}
	return n, true
}

// AmountLabel is the inverse of AmountFromLabel.
func AmountLabel(amount int) string {
	switch amount {
	case AmountMedium:
		return "medium"
	case AmountHigh:
		return "high"
	default:
		return "low"
	}
}
