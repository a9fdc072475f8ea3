package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"
)

var _ Store = (*MongoStore)(nil)

const (
	usersCollection   = "users"
	reportsCollection = "waste_reports"
)

// MongoStore keeps users and reports as documents. Report locations are
// GeoJSON points so nearby lookups can use the 2dsphere index.
//
// Writes that pair a report change with a user credit are two operations; a
// failed credit undoes the report change again.
type MongoStore struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

type userDoc struct {
	ID          string    `bson:"_id"`
	ExternalID  string    `bson:"external_id"`
	Name        string    `bson:"name"`
	Email       string    `bson:"email"`
	TotalPoints int       `bson:"total_points"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type reportDoc struct {
	ID              string     `bson:"_id"`
	ReporterID      string     `bson:"reporter_id"`
	ImageURL        string     `bson:"image_url"`
	Location        geoPoint   `bson:"location"`
	WasteType       string     `bson:"waste_type"`
	Confidence      int        `bson:"confidence"`
	Amount          int        `bson:"amount"`
	Points          int        `bson:"points"`
	Description     string     `bson:"description,omitempty"`
	Analysis        string     `bson:"analysis,omitempty"`
	Collected       bool       `bson:"collected"`
	CollectedBy     string     `bson:"collected_by,omitempty"`
	CollectedAt     *time.Time `bson:"collected_at,omitempty"`
	CollectionProof string     `bson:"collection_proof,omitempty"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

// EnsureIndexes creates the unique external id index and the geo index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctxIdx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []string
	if _, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctxIdx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "total_points", Value: -1}}},
	}); err != nil {
		errs = append(errs, "users: "+err.Error())
	}
	if _, err := s.db.Collection(reportsCollection).Indexes().CreateMany(ctxIdx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "collected", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		errs = append(errs, "waste_reports: "+err.Error())
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *MongoStore) users() *mongo.Collection   { return s.db.Collection(usersCollection) }
func (s *MongoStore) reports() *mongo.Collection { return s.db.Collection(reportsCollection) }

func (s *MongoStore) FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"external_id": externalID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.model()
}

func (s *MongoStore) FindOrCreateUser(ctx context.Context, u *models.User) (bool, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	insert := bson.M{
		"_id":          u.ID.String(),
		"name":         u.Name,
		"email":        u.Email,
		"total_points": 0,
		"created_at":   now,
		"updated_at":   now,
	}
	res, err := s.users().UpdateOne(ctx,
		bson.M{"external_id": u.ExternalID},
		bson.M{"$setOnInsert": insert},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("upsert user: %w", err)
	}
	created := err == nil && res.UpsertedCount > 0

	existing, err := s.FindUserByExternalID(ctx, u.ExternalID)
	if err != nil {
		return false, err
	}
	*u = *existing
	return created, nil
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, email string) error {
	res, err := s.users().UpdateByID(ctx, id.String(), bson.M{"$set": bson.M{
		"name":       name,
		"email":      email,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) IncrementUserPoints(ctx context.Context, externalID string, delta int) (*models.User, error) {
	var doc userDoc
	err := s.users().FindOneAndUpdate(ctx,
		bson.M{"external_id": externalID},
		bson.M{
			"$inc": bson.M{"total_points": delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment points: %w", err)
	}
	return doc.model()
}

func (s *MongoStore) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "total_points", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"name": 1, "total_points": 1})

	cur, err := s.users().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer cur.Close(ctx)

	entries := make([]models.LeaderboardEntry, 0, limit)
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		entries = append(entries, models.LeaderboardEntry{Name: doc.Name, TotalPoints: doc.TotalPoints})
	}
	return entries, cur.Err()
}

func (s *MongoStore) CreateReport(ctx context.Context, report *models.WasteReport, credit int) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	now := time.Now().UTC()
	report.CreatedAt, report.UpdatedAt = now, now

	if _, err := s.reports().InsertOne(ctx, reportToDoc(report)); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	if err := s.creditUser(ctx, report.ReporterID, credit); err != nil {
		rctx, cancel := rollbackContext(ctx)
		defer cancel()
		if _, derr := s.reports().DeleteOne(rctx, bson.M{"_id": report.ID.String()}); derr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, derr)
		}
		return err
	}
	return nil
}

func (s *MongoStore) FindReport(ctx context.Context, id uuid.UUID) (*models.WasteReport, error) {
	var doc reportDoc
	if err := s.reports().FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return doc.model()
}

func (s *MongoStore) ListReports(ctx context.Context, filter ReportFilter) ([]models.WasteReport, error) {
	cur, err := s.reports().Find(ctx, reportQuery(filter), listOptions(filter))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.WasteReport
	for cur.Next(ctx) {
		var doc reportDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		r, err := doc.model()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, cur.Err()
}

func (s *MongoStore) CompleteCollection(ctx context.Context, c Collection) (*models.WasteReport, error) {
	var doc reportDoc
	err := s.reports().FindOneAndUpdate(ctx,
		bson.M{"_id": c.ReportID.String(), "collected": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"collected":        true,
			"collected_by":     c.CollectorID.String(),
			"collected_at":     c.At.UTC(),
			"collection_proof": c.ProofURL,
			"updated_at":       time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.missingOrCollected(ctx, c.ReportID)
		}
		return nil, fmt.Errorf("flip collected: %w", err)
	}

	if err := s.creditUser(ctx, c.CollectorID, c.Points); err != nil {
		if uerr := s.undoCollection(ctx, c); uerr != nil {
			return nil, fmt.Errorf("%w (rollback failed: %v)", err, uerr)
		}
		return nil, err
	}
	return doc.model()
}

// undoCollection reverts the flip made for c. The filter pins the collector
// so only this attempt's flip is cleared.
func (s *MongoStore) undoCollection(ctx context.Context, c Collection) error {
	rctx, cancel := rollbackContext(ctx)
	defer cancel()

	_, err := s.reports().UpdateOne(rctx,
		bson.M{"_id": c.ReportID.String(), "collected": true, "collected_by": c.CollectorID.String()},
		bson.M{
			"$set":   bson.M{"collected": false, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"collected_by": "", "collected_at": "", "collection_proof": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("undo collection: %w", err)
	}
	return nil
}

// rollbackContext keeps compensating writes alive when the request context
// is what made the first write fail.
func rollbackContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}

func (s *MongoStore) MarkCollected(ctx context.Context, id uuid.UUID, at time.Time) (*models.WasteReport, bool, error) {
	res, err := s.reports().UpdateOne(ctx,
		bson.M{"_id": id.String(), "collected": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"collected": true, "collected_at": at.UTC(), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return nil, false, fmt.Errorf("mark collected: %w", err)
	}
	report, err := s.FindReport(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return report, res.ModifiedCount > 0, nil
}

func (s *MongoStore) creditUser(ctx context.Context, id uuid.UUID, points int) error {
	if points == 0 {
		return nil
	}
	res, err := s.users().UpdateByID(ctx, id.String(), bson.M{
		"$inc": bson.M{"total_points": points},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("credit user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) missingOrCollected(ctx context.Context, id uuid.UUID) error {
	n, err := s.reports().CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("check report: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadyCollected
}

func reportQuery(filter ReportFilter) bson.M {
	q := bson.M{}
	if filter.OnlyOutstanding {
		q["collected"] = bson.M{"$ne": true}
	}
	if b := filter.Within; b != nil {
		ring := [][]float64{
			{b.MinLongitude, b.MinLatitude},
			{b.MaxLongitude, b.MinLatitude},
			{b.MaxLongitude, b.MaxLatitude},
			{b.MinLongitude, b.MaxLatitude},
			{b.MinLongitude, b.MinLatitude},
		}
		q["location"] = bson.M{"$geoWithin": bson.M{"$geometry": bson.M{
			"type":        "Polygon",
			"coordinates": [][][]float64{ring},
		}}}
	}
	return q
}

func listOptions(filter ReportFilter) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return opts
}

func reportToDoc(r *models.WasteReport) reportDoc {
	doc := reportDoc{
		ID:              r.ID.String(),
		ReporterID:      r.ReporterID.String(),
		ImageURL:        r.ImageURL,
		Location:        geoPoint{Type: "Point", Coordinates: []float64{r.Longitude, r.Latitude}},
		WasteType:       r.WasteType,
		Confidence:      r.Confidence,
		Amount:          r.Amount,
		Points:          r.Points,
		Description:     r.Description,
		Analysis:        string(r.Analysis),
		Collected:       r.Collected,
		CollectedAt:     r.CollectedAt,
		CollectionProof: r.CollectionProof,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.CollectedBy != nil {
		doc.CollectedBy = r.CollectedBy.String()
	}
	return doc
}

func (d reportDoc) model() (*models.WasteReport, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("report %q: bad id: %w", d.ID, err)
	}
	reporter, err := uuid.Parse(d.ReporterID)
	if err != nil {
		return nil, fmt.Errorf("report %q: bad reporter id: %w", d.ID, err)
	}
	r := &models.WasteReport{
		ID:              id,
		ReporterID:      reporter,
		ImageURL:        d.ImageURL,
		WasteType:       d.WasteType,
		Confidence:      d.Confidence,
		Amount:          d.Amount,
		Points:          d.Points,
		Description:     d.Description,
		Collected:       d.Collected,
		CollectedAt:     d.CollectedAt,
		CollectionProof: d.CollectionProof,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if len(d.Location.Coordinates) == 2 {
		r.Longitude, r.Latitude = d.Location.Coordinates[0], d.Location.Coordinates[1]
	}
	if d.Analysis != "" {
		r.Analysis = datatypes.JSON(d.Analysis)
	}
	if d.CollectedBy != "" {
		by, err := uuid.Parse(d.CollectedBy)
		if err != nil {
			return nil, fmt.Errorf("report %q: bad collector id: %w", d.ID, err)
		}
		r.CollectedBy = &by
	}
	return r, nil
}

func (d userDoc) model() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user %q: bad id: %w", d.ID, err)
	}
	return &models.User{
		ID:          id,
		ExternalID:  d.ExternalID,
		Name:        d.Name,
		Email:       d.Email,
		TotalPoints: d.TotalPoints,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}
