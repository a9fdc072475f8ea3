package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CollectionHandler struct {
	collections   *services.CollectionService
	maxImageBytes int
	metrics       Recorder
}

func NewCollectionHandler(collections *services.CollectionService, maxImageBytes int, rec Recorder) *CollectionHandler {
	return &CollectionHandler{
		collections:   collections,
		maxImageBytes: maxImageBytes,
		metrics:       recorderOrNoop(rec),
	}
}

// Submit handles POST /api/collections (multipart: wasteId, image, lat, lng).
func (h *CollectionHandler) Submit(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	result, err := h.submit(c, id)
	h.metrics.ObserveWorkflow("collection", outcome(err))
	if err != nil {
		if errors.Is(err, errReadImage) {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to read image",
			})
		}
		return writeServiceError(c, err)
	}
	h.metrics.AddPoints("collection", result.PointsAwarded)

	return c.JSON(dto.CollectionResponse{
		Message:       "Collection verified",
		PointsAwarded: result.PointsAwarded,
		Report:        toReportResponse(result.Report),
	})
}

func (h *CollectionHandler) submit(c *fiber.Ctx, id identity.Identity) (*services.CollectionResult, error) {
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

	return h.collections.SubmitProof(c.UserContext(), services.SubmitProofInput{
		CollectorExternalID: id.ExternalID,
		WasteReportID:       c.FormValue("wasteId"),
		Proof:               image,
		ProofContentType:    contentType,
		Latitude:            lat,
		Longitude:           lng,
	})
}

// MarkCollected handles POST /api/admin/reports/:id/collected.
func (h *CollectionHandler) MarkCollected(c *fiber.Ctx) error {
	report, changed, err := h.collections.MarkCollected(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(dto.MarkCollectedResponse{
		Changed: changed,
		Report:  toReportResponse(report),
	})
}
