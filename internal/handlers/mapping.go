package handlers

import (
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
)

func toReportResponse(r *models.WasteReport) dto.ReportResponse {
	resp := dto.ReportResponse{
		ID:              r.ID.String(),
		ImageURL:        r.ImageURL,
		Location:        dto.LocationResponse{Latitude: r.Latitude, Longitude: r.Longitude},
		WasteType:       r.WasteType,
		Confidence:      r.Confidence,
		Amount:          r.Amount,
		AmountLabel:     models.AmountLabel(r.Amount),
		Points:          r.Points,
		ReporterID:      r.ReporterID.String(),
		Description:     r.Description,
		Collected:       r.Collected,
		CollectedAt:     r.CollectedAt,
		CollectionProof: r.CollectionProof,
		CreatedAt:       r.CreatedAt,
	}
	if r.CollectedBy != nil {
		resp.CollectedBy = r.CollectedBy.String()
	}
	return resp
}

func toReportResponses(reports []models.WasteReport) []dto.ReportResponse {
	out := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toReportResponse(&reports[i]))
	}
	return out
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		Name:        u.Name,
		Email:       u.Email,
		TotalPoints: u.TotalPoints,
		CreatedAt:   u.CreatedAt,
	}
}
