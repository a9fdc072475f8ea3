package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/geo"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports       *services.ReportService
	collections   *services.CollectionService
	maxImageBytes int
	metrics       Recorder
}

func NewReportHandler(reports *services.ReportService, collections *services.CollectionService, maxImageBytes int, rec Recorder) *ReportHandler {
	return &ReportHandler{
		reports:       reports,
		collections:   collections,
		maxImageBytes: maxImageBytes,
		metrics:       recorderOrNoop(rec),
	}
}

// Create handles POST /api/reports (multipart: lat, lng, image, description).
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	result, err := h.create(c, id)
	h.metrics.ObserveWorkflow("report", outcome(err))
	if err != nil {
		if errors.Is(err, errReadImage) {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to read image",
			})
		}
		return writeServiceError(c, err)
	}
	h.metrics.AddPoints("report", result.Points)

	return c.Status(fiber.StatusCreated).JSON(dto.CreateReportResponse{
		Message:    "Waste reported successfully",
		WasteType:  result.WasteType,
		Confidence: result.Confidence,
		Points:     result.Points,
		Report:     toReportResponse(result.Report),
	})
}

func (h *ReportHandler) create(c *fiber.Ctx, id identity.Identity) (*services.CreateReportResult, error) {
	lat, err := optionalFloat(c.FormValue("lat"), "lat")
	if err != nil {
		return nil, err
	}
	lng, err := optionalFloat(c.FormValue("lng"), "lng")
	if err != nil {
		return nil, err
	}
	image, contentType, err := readImage(c, "image", h.maxImageBytes)
	if err != nil {
		return nil, err
	}

	return h.reports.Create(c.UserContext(), services.CreateReportInput{
		Latitude:           lat,
		Longitude:          lng,
		Image:              image,
		ImageContentType:   contentType,
		ReporterExternalID: id.ExternalID,
		Description:        c.FormValue("description"),
	})
}

// List handles GET /api/reports. With lat and lng only nearby reports are
// returned.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	lat, err := optionalFloat(c.Query("lat"), "lat")
	if err != nil {
		return writeServiceError(c, err)
	}
	lng, err := optionalFloat(c.Query("lng"), "lng")
	if err != nil {
		return writeServiceError(c, err)
	}

	var near *geo.Point
	if lat != nil && lng != nil {
		near = &geo.Point{Latitude: *lat, Longitude: *lng}
	}

	reports, err := h.collections.ListOutstanding(c.UserContext(), near)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(dto.ReportListResponse{
		Reports: toReportResponses(reports),
		Count:   len(reports),
	})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	report, err := h.reports.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(toReportResponse(report))
}
