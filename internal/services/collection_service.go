package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/geo"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/vision"
	"github.com/google/uuid"
)

type SubmitProofInput struct {
	CollectorExternalID string
	WasteReportID       string
	Proof               []byte
	ProofContentType    string
	Latitude            *float64
	Longitude           *float64
}

type CollectionResult struct {
	Report        *models.WasteReport
	PointsAwarded int
}

type CollectionService struct {
	store      store.Store
	uploader   media.Uploader
	classifier vision.Classifier
	events     events.Publisher
	rewards    *config.Rewards
	now        func() time.Time
}

func NewCollectionService(st store.Store, up media.Uploader, cl vision.Classifier, pub events.Publisher, rewards *config.Rewards) *CollectionService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &CollectionService{
		store:      st,
		uploader:   up,
		classifier: cl,
		events:     pub,
		rewards:    rewards,
		now:        time.Now,
	}
}

// ListOutstanding returns reports still awaiting pickup, newest first. With
// near set, only reports within the proximity tolerance are returned.
func (s *CollectionService) ListOutstanding(ctx context.Context, near *geo.Point) ([]models.WasteReport, error) {
	filter := store.ReportFilter{OnlyOutstanding: true}
	tolerance := s.rewards.Proximity.ToleranceDeg
	if near != nil {
		if err := near.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		box := near.Box(tolerance)
		filter.Within = &box
	}

	reports, err := s.store.ListReports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list outstanding: %w", err)
	}
	if near == nil {
		return reports, nil
	}

	nearby := reports[:0]
	for _, r := range reports {
		if near.Within(geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}, tolerance) {
			nearby = append(nearby, r)
		}
	}
	return nearby, nil
}

// SubmitProof verifies a pickup photo against the original report and, on a
// match, flips the report to collected and credits the collector. The flip
// is a compare-and-swap so a report pays out at most once.
func (s *CollectionService) SubmitProof(ctx context.Context, in SubmitProofInput) (*CollectionResult, error) {
	reportID, collectorLoc, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	collector, err := resolveUser(ctx, s.store, in.CollectorExternalID)
	if err != nil {
		return nil, err
	}

	proofURL, err := s.uploader.Upload(ctx, in.Proof, in.ProofContentType, media.FolderCollections)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	report, err := s.store.FindReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	if report.Collected {
		return nil, ErrAlreadyCollected
	}

	if s.rewards.Proximity.Enforce {
		site := geo.Point{Latitude: report.Latitude, Longitude: report.Longitude}
		if !site.Within(*collectorLoc, s.rewards.Proximity.ToleranceDeg) {
			return nil, ErrNotNearby
		}
	}

	reply, err := s.classifier.Compare(ctx, report.ImageURL, proofURL, vision.ComparePrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	if !vision.ParseVerdict(reply) {
		slog.Info("collection proof rejected", "action", "collection.compare", "report_id", report.ID.String(),
			"user_id", collector.ExternalID, "verdict", truncateReply(reply))
		return nil, ErrMismatch
	}

	points := s.rewards.CollectionPoints
	at := s.now().UTC()
	updated, err := s.store.CompleteCollection(ctx, store.Collection{
		ReportID:    report.ID,
		CollectorID: collector.ID,
		ProofURL:    proofURL,
		At:          at,
		Points:      points,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyCollected):
			return nil, ErrAlreadyCollected
		case errors.Is(err, store.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("complete collection: %w", err)
	}

	if err := s.events.Publish(ctx, events.SubjectReportCollected, events.ReportCollected{
		ReportID:    updated.ID.String(),
		CollectorID: collector.ExternalID,
		Points:      points,
		At:          at,
	}); err != nil {
		slog.Warn("event publish failed", "subject", events.SubjectReportCollected, "error", err)
	}

	return &CollectionResult{Report: updated, PointsAwarded: points}, nil
}

// MarkCollected flips a report to collected without a proof and without
// crediting anyone. Repeating the call is harmless.
func (s *CollectionService) MarkCollected(ctx context.Context, id string) (*models.WasteReport, bool, error) {
	reportID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid report id", ErrValidation)
	}
	report, changed, err := s.store.MarkCollected(ctx, reportID, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, ErrReportNotFound
		}
		return nil, false, fmt.Errorf("mark collected: %w", err)
	}
	return report, changed, nil
}

func (s *CollectionService) validate(in SubmitProofInput) (uuid.UUID, *geo.Point, error) {
	if strings.TrimSpace(in.CollectorExternalID) == "" {
		return uuid.Nil, nil, fmt.Errorf("%w: collector id is required", ErrValidation)
	}
	if strings.TrimSpace(in.WasteReportID) == "" {
		return uuid.Nil, nil, fmt.Errorf("%w: waste report id is required", ErrValidation)
	}
	reportID, err := uuid.Parse(strings.TrimSpace(in.WasteReportID))
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: invalid waste report id", ErrValidation)
	}
	if len(in.Proof) == 0 {
		return uuid.Nil, nil, fmt.Errorf("%w: proof image is required", ErrValidation)
	}

	var loc *geo.Point
	if in.Latitude != nil && in.Longitude != nil {
		loc = &geo.Point{Latitude: *in.Latitude, Longitude: *in.Longitude}
		if err := loc.Validate(); err != nil {
			return uuid.Nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if loc == nil && s.rewards.Proximity.Enforce {
		return uuid.Nil, nil, fmt.Errorf("%w: collector location is required", ErrValidation)
	}
	return reportID, loc, nil
}
