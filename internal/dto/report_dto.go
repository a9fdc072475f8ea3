package dto

import (
	"time"
)

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ReportResponse struct {
	ID              string           `json:"id"`
	ImageURL        string           `json:"image_url"`
	Location        LocationResponse `json:"location"`
	WasteType       string           `json:"waste_type"`
	Confidence      int              `json:"confidence"`
	Amount          int              `json:"amount"`
	AmountLabel     string           `json:"amount_label"`
	Points          int              `json:"points"`
	ReporterID      string           `json:"reporter_id"`
	Description     string           `json:"description,omitempty"`
	Collected       bool             `json:"collected"`
	CollectedBy     string           `json:"collected_by,omitempty"`
	CollectedAt     *time.Time       `json:"collected_at,omitempty"`
	CollectionProof string           `json:"collection_proof,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Count   int              `json:"count"`
}

type CreateReportResponse struct {
	Message    string         `json:"message"`
	WasteType  string         `json:"waste_type"`
	Confidence int            `json:"confidence"`
	Points     int            `json:"points"`
	Report     ReportResponse `json:"report"`
}

type CollectionResponse struct {
	Message       string         `json:"message"`
	PointsAwarded int            `json:"points_awarded"`
	Report        ReportResponse `json:"report"`
}

type MarkCollectedResponse struct {
	Changed bool           `json:"changed"`
	Report  ReportResponse `json:"report"`
}
