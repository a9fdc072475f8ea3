package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/geo"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectionFixture struct {
	store      *store.Memory
	uploader   *fakeUploader
	classifier *fakeClassifier
	events     *recordingPublisher
	svc        *CollectionService
	report     *models.WasteReport
}

const (
	siteLat = 12.9716
	siteLng = 77.5946
)

func newCollectionFixture(t *testing.T, verdict string) *collectionFixture {
	t.Helper()
	f := &collectionFixture{
		store:      store.NewMemory(),
		uploader:   &fakeUploader{},
		classifier: &fakeClassifier{compareResp: verdict},
		events:     &recordingPublisher{},
	}
	f.svc = NewCollectionService(f.store, f.uploader, f.classifier, f.events, defaultRewards())

	reporter := newUser(t, f.store, "reporter")
	f.report = &models.WasteReport{
		ReporterID: reporter.ID,
		ImageURL:   "https://cdn.example/waste_images/original.jpg",
		Latitude:   siteLat,
		Longitude:  siteLng,
		WasteType:  models.WasteTypePlastic,
		Amount:     models.AmountMedium,
		Points:     10,
	}
	require.NoError(t, f.store.CreateReport(context.Background(), f.report, f.report.Points))
	return f
}

func proofFrom(collector string, reportID uuid.UUID) SubmitProofInput {
	return SubmitProofInput{
		CollectorExternalID: collector,
		WasteReportID:       reportID.String(),
		Proof:               []byte("proof"),
		ProofContentType:    "image/jpeg",
		Latitude:            ptr(siteLat + 0.0004),
		Longitude:           ptr(siteLng - 0.0004),
	}
}

func TestSubmitProof_Match(t *testing.T) {
	f := newCollectionFixture(t, "True\n")
	collector := newUser(t, f.store, "u2")

	res, err := f.svc.SubmitProof(context.Background(), proofFrom("u2", f.report.ID))
	require.NoError(t, err)

	assert.Equal(t, 10, res.PointsAwarded)
	assert.True(t, res.Report.Collected)
	require.NotNil(t, res.Report.CollectedBy)
	assert.Equal(t, collector.ID, *res.Report.CollectedBy)
	assert.NotEmpty(t, res.Report.CollectionProof)
	assert.NotNil(t, res.Report.CollectedAt)
	assert.Equal(t, 10, points(t, f.store, "u2"))
	assert.Equal(t, 10, points(t, f.store, "reporter"), "reporter keeps report points only")

	require.Len(t, f.uploader.uploads, 1)
	assert.Equal(t, media.FolderCollections, f.uploader.uploads[0].folder)
	assert.Equal(t, f.report.ImageURL, f.classifier.lastURLs[0], "original photo is compared first")

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.SubjectReportCollected, f.events.events[0].subject)
}

func TestSubmitProof_MismatchChangesNothing(t *testing.T) {
	f := newCollectionFixture(t, "False")
	newUser(t, f.store, "u2")

	_, err := f.svc.SubmitProof(context.Background(), proofFrom("u2", f.report.ID))
	assert.ErrorIs(t, err, ErrMismatch)

	stored, err := f.store.FindReport(context.Background(), f.report.ID)
	require.NoError(t, err)
	assert.False(t, stored.Collected)
	assert.Nil(t, stored.CollectedBy)
	assert.Empty(t, stored.CollectionProof)
	assert.Equal(t, 0, points(t, f.store, "u2"))
	assert.Empty(t, f.events.events)
}

func TestSubmitProof_NonBooleanVerdictIsMismatch(t *testing.T) {
	for _, verdict := range []string{"", "maybe", "yes", "they look similar", `"true"`, "true.", "`true`", "'true'"} {
		f := newCollectionFixture(t, verdict)
		newUser(t, f.store, "u2")
		_, err := f.svc.SubmitProof(context.Background(), proofFrom("u2", f.report.ID))
		assert.ErrorIs(t, err, ErrMismatch, verdict)

		stored, err := f.store.FindReport(context.Background(), f.report.ID)
		require.NoError(t, err)
		assert.False(t, stored.Collected, verdict)
		assert.Equal(t, 0, points(t, f.store, "u2"), verdict)
	}
}

func TestSubmitProof_AlreadyCollected(t *testing.T) {
	f := newCollectionFixture(t, "true")
	newUser(t, f.store, "u2")
	newUser(t, f.store, "u3")

	_, err := f.svc.SubmitProof(context.Background(), proofFrom("u2", f.report.ID))
	require.NoError(t, err)
	calls := f.classifier.callCount()

	_, err = f.svc.SubmitProof(context.Background(), proofFrom("u3", f.report.ID))
	assert.ErrorIs(t, err, ErrAlreadyCollected)
	assert.Equal(t, calls, f.classifier.callCount(), "no comparison for a collected report")
	assert.Equal(t, 0, points(t, f.store, "u3"))
}

func TestSubmitProof_ConcurrentCollectorsPaidOnce(t *testing.T) {
	f := newCollectionFixture(t, "true")

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
		newUser(t, f.store, ids[i])
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitProof(context.Background(), proofFrom(ids[i], f.report.ID))
		}(i)
	}
	wg.Wait()

	wins, total := 0, 0
	for i, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyCollected)
		}
		total += points(t, f.store, ids[i])
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 10, total)
}

func TestSubmitProof_NotNearby(t *testing.T) {
	f := newCollectionFixture(t, "true")
	newUser(t, f.store, "u2")
	in := proofFrom("u2", f.report.ID)
	in.Latitude = ptr(siteLat + 0.01)

	_, err := f.svc.SubmitProof(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotNearby)
	assert.Equal(t, 0, f.classifier.callCount())
}

func TestSubmitProof_ProximityDisabled(t *testing.T) {
	f := newCollectionFixture(t, "true")
	f.svc.rewards.Proximity.Enforce = false
	newUser(t, f.store, "u2")
	in := proofFrom("u2", f.report.ID)
	in.Latitude, in.Longitude = nil, nil

	_, err := f.svc.SubmitProof(context.Background(), in)
	require.NoError(t, err)
}

func TestSubmitProof_Validation(t *testing.T) {
	f := newCollectionFixture(t, "true")
	newUser(t, f.store, "u2")

	cases := map[string]func(*SubmitProofInput){
		"missing collector": func(in *SubmitProofInput) { in.CollectorExternalID = "" },
		"missing report id": func(in *SubmitProofInput) { in.WasteReportID = "" },
		"bad report id":     func(in *SubmitProofInput) { in.WasteReportID = "abc" },
		"missing proof":     func(in *SubmitProofInput) { in.Proof = nil },
		"missing location":  func(in *SubmitProofInput) { in.Latitude = nil },
		"bad location":      func(in *SubmitProofInput) { in.Longitude = ptr(200) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := proofFrom("u2", f.report.ID)
			mutate(&in)
			_, err := f.svc.SubmitProof(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 0, f.uploader.count())
}

func TestSubmitProof_UnknownEntities(t *testing.T) {
	f := newCollectionFixture(t, "true")

	_, err := f.svc.SubmitProof(context.Background(), proofFrom("ghost", f.report.ID))
	assert.ErrorIs(t, err, ErrUserNotFound)

	newUser(t, f.store, "u2")
	_, err = f.svc.SubmitProof(context.Background(), proofFrom("u2", uuid.New()))
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestSubmitProof_CollectorRowGone(t *testing.T) {
	f := newCollectionFixture(t, "true")
	svc := NewCollectionService(ghostUserStore{f.store}, f.uploader, f.classifier, f.events, defaultRewards())

	_, err := svc.SubmitProof(context.Background(), proofFrom("ghost", f.report.ID))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrReportNotFound)

	stored, err := f.store.FindReport(context.Background(), f.report.ID)
	require.NoError(t, err)
	assert.False(t, stored.Collected)
}

func TestListOutstanding(t *testing.T) {
	f := newCollectionFixture(t, "true")
	reporter, err := f.store.FindUserByExternalID(context.Background(), "reporter")
	require.NoError(t, err)

	far := &models.WasteReport{ReporterID: reporter.ID, Latitude: 40.7128, Longitude: -74.0060}
	done := &models.WasteReport{ReporterID: reporter.ID, Latitude: siteLat, Longitude: siteLng}
	require.NoError(t, f.store.CreateReport(context.Background(), far, 0))
	require.NoError(t, f.store.CreateReport(context.Background(), done, 0))
	_, _, err = f.svc.MarkCollected(context.Background(), done.ID.String())
	require.NoError(t, err)

	all, err := f.svc.ListOutstanding(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, r := range all {
		assert.False(t, r.Collected)
	}

	near, err := f.svc.ListOutstanding(context.Background(), &geo.Point{Latitude: siteLat + 0.0005, Longitude: siteLng})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, f.report.ID, near[0].ID)

	_, err = f.svc.ListOutstanding(context.Background(), &geo.Point{Latitude: 100, Longitude: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMarkCollected_IdempotentNoPoints(t *testing.T) {
	f := newCollectionFixture(t, "true")

	report, changed, err := f.svc.MarkCollected(context.Background(), f.report.ID.String())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, report.Collected)

	_, changed, err = f.svc.MarkCollected(context.Background(), f.report.ID.String())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 10, points(t, f.store, "reporter"))

	_, _, err = f.svc.MarkCollected(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrReportNotFound)
}
