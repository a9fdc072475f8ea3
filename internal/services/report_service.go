package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/geo"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/vision"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxDescriptionLen = 500

type CreateReportInput struct {
	Latitude           *float64
	Longitude          *float64
	Image              []byte
	ImageContentType   string
	ReporterExternalID string
	Description        string
}

type CreateReportResult struct {
	Report     *models.WasteReport
	WasteType  string
	Confidence int
	Points     int
}

type ReportService struct {
	store      store.Store
	uploader   media.Uploader
	classifier vision.Classifier
	events     events.Publisher
	rewards    *config.Rewards
	filter     *ContentFilter
	now        func() time.Time
}

func NewReportService(st store.Store, up media.Uploader, cl vision.Classifier, pub events.Publisher, rewards *config.Rewards) *ReportService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &ReportService{
		store:      st,
		uploader:   up,
		classifier: cl,
		events:     pub,
		rewards:    rewards,
		filter:     NewContentFilter(),
		now:        time.Now,
	}
}

// Create runs the report workflow: validate, resolve the reporter, upload,
// classify, persist and credit. Each step fails fast; an upload that is
// followed by a failure is left orphaned.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*CreateReportResult, error) {
	loc, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	reporter, err := resolveUser(ctx, s.store, in.ReporterExternalID)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.uploader.Upload(ctx, in.Image, in.ImageContentType, media.FolderReports)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	reply, err := s.classifier.Classify(ctx, imageURL, vision.AnalyzePrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	analysis, err := vision.ParseAnalysis(reply)
	if err != nil {
		slog.Warn("unparseable classifier reply", "action", "report.classify", "reply", truncateReply(reply))
		return nil, fmt.Errorf("%w: %v", ErrClassificationParse, err)
	}

	report := s.buildReport(reporter, loc, imageURL, strings.TrimSpace(in.Description), analysis)
	credit := reporterCredit(analysis, report.Points)
	if err := s.store.CreateReport(ctx, report, credit); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("persist report: %w", err)
	}

	s.publish(ctx, events.SubjectReportCreated, events.ReportCreated{
		ReportID:   report.ID.String(),
		ReporterID: reporter.ExternalID,
		WasteType:  report.WasteType,
		Amount:     report.Amount,
		Points:     credit,
		Latitude:   report.Latitude,
		Longitude:  report.Longitude,
		At:         report.CreatedAt,
	})

	return &CreateReportResult{
		Report:     report,
		WasteType:  report.WasteType,
		Confidence: report.Confidence,
		Points:     credit,
	}, nil
}

// Get returns one report by id.
func (s *ReportService) Get(ctx context.Context, id string) (*models.WasteReport, error) {
	reportID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", ErrValidation)
	}
	report, err := s.store.FindReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return report, nil
}

func (s *ReportService) validate(in CreateReportInput) (geo.Point, error) {
	if in.Latitude == nil || in.Longitude == nil {
		return geo.Point{}, fmt.Errorf("%w: latitude and longitude are required", ErrValidation)
	}
	loc := geo.Point{Latitude: *in.Latitude, Longitude: *in.Longitude}
	if err := loc.Validate(); err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(in.Image) == 0 {
		return geo.Point{}, fmt.Errorf("%w: image is required", ErrValidation)
	}
	if strings.TrimSpace(in.ReporterExternalID) == "" {
		return geo.Point{}, fmt.Errorf("%w: reporter id is required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return geo.Point{}, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxDescriptionLen)
	}
	if ok, reason := s.filter.Check(in.Description); !ok {
		return geo.Point{}, fmt.Errorf("%w: description rejected (%s)", ErrValidation, reason)
	}
	return loc, nil
}

func (s *ReportService) buildReport(reporter *models.User, loc geo.Point, imageURL, description string, a vision.Analysis) *models.WasteReport {
	amount, known := models.AmountFromLabel(a.Amount)
	if !known {
		slog.Warn("unknown amount from classifier, using low", "amount", a.Amount)
	}
	label := models.AmountLabel(amount)
	points := s.rewards.AmountPoints[label]

	raw, _ := json.Marshal(a)
	return &models.WasteReport{
		ID:          uuid.New(),
		ReporterID:  reporter.ID,
		ImageURL:    imageURL,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		WasteType:   models.NormalizeWasteType(a.WasteType),
		Confidence:  confidencePercent(a.Confidence),
		Amount:      amount,
		Points:      points,
		Description: description,
		Analysis:    datatypes.JSON(raw),
	}
}

// reporterCredit is what the reporter earns: the classifier's points when it
// gave a positive value, otherwise the reward table value stored on the report.
func reporterCredit(a vision.Analysis, table int) int {
	if a.Points <= 0 {
		return table
	}
	if a.Points != table {
		slog.Info("classifier points differ from reward table", "classifier", a.Points, "table", table, "amount", a.Amount)
	}
	return a.Points
}

func (s *ReportService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.events.Publish(ctx, subject, payload); err != nil {
		slog.Warn("event publish failed", "subject", subject, "error", err)
	}
}

// confidencePercent clamps a 0..1 score and scales it to an integer percent.
func confidencePercent(c float64) int {
	if math.IsNaN(c) || c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return int(math.Round(c * 100))
}

func truncateReply(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
