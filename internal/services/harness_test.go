package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/kinship-backend/internal/data/aggregates"
	"github.com/yungbote/kinship-backend/internal/data/repos"
	"github.com/yungbote/kinship-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/domain/events"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/realtime/bus"
)

type harness struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *observability.Metrics
	events  *eventSink

	courses      repos.CourseRepo
	lessons      repos.LessonRepo
	enrollments  repos.EnrollmentRepo
	templates    repos.CertificateTemplateRepo
	certRepo     repos.CertificateRepo
	badgeRepo    repos.BadgeRepo
	userBadges   repos.UserBadgeRepo
	activityRepo repos.UserActivityRepo

	notifier     AwardNotifier
	certificates CertificateService
	badges       BadgeService
	activity     ActivityService
	progress     ProgressService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		db:           db,
		log:          log,
		metrics:      observability.New(),
		events:       &eventSink{},
		courses:      repos.NewCourseRepo(db, log),
		lessons:      repos.NewLessonRepo(db, log),
		enrollments:  repos.NewEnrollmentRepo(db, log),
		templates:    repos.NewCertificateTemplateRepo(db, log),
		certRepo:     repos.NewCertificateRepo(db, log),
		badgeRepo:    repos.NewBadgeRepo(db, log),
		userBadges:   repos.NewUserBadgeRepo(db, log),
		activityRepo: repos.NewUserActivityRepo(db, log),
	}
	b := bus.NewLocalBus(log)
	if err := b.StartForwarder(context.Background(), h.events.add); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	h.notifier = NewAwardNotifier(log, b, h.metrics)
	h.certificates = NewCertificateService(CertificateServiceDeps{
		Log:          log,
		Courses:      h.courses,
		Templates:    h.templates,
		Certificates: h.certRepo,
		Enrollments:  h.enrollments,
		Notifier:     h.notifier,
		Metrics:      h.metrics,
	})
	h.badges = NewBadgeService(log, h.badgeRepo, h.userBadges, h.activityRepo, h.notifier, h.metrics)
	h.activity = NewActivityService(log, h.activityRepo, h.badges, h.metrics)
	ledger := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log},
		Enrollments: h.enrollments,
		Lessons:     h.lessons,
		Activities:  h.activityRepo,
	})
	h.progress = NewProgressService(log, ledger, h.enrollments, h.certificates, h.badges, h.notifier, h.metrics)
	return h
}

// setClock pins the badge and activity clocks.
func (h *harness) setClock(now time.Time) {
	clock := func() time.Time { return now }
	h.badges.(*badgeService).now = clock
	h.activity.(*activityService).now = clock
}

func heldBadgeCount(t *testing.T, h *harness, userID, badgeID uuid.UUID) int {
	t.Helper()
	ids, err := h.userBadges.ListBadgeIDsByUser(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("ListBadgeIDsByUser: %v", err)
	}
	n := 0
	for _, id := range ids {
		if id == badgeID {
			n++
		}
	}
	return n
}

func (h *harness) metricsText(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := h.metrics.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	return buf.String()
}

func (h *harness) certificateCount(t *testing.T, userID, courseID uuid.UUID) int {
	t.Helper()
	n, err := h.certRepo.CountByUserAndCourse(context.Background(), nil, userID, courseID)
	if err != nil {
		t.Fatalf("CountByUserAndCourse: %v", err)
	}
	return n
}

type eventSink struct {
	mu  sync.Mutex
	got []events.AwardEvent
}

func (s *eventSink) add(e events.AwardEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
}

func (s *eventSink) kinds() []events.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Kind, 0, len(s.got))
	for _, e := range s.got {
		out = append(out, e.Kind)
	}
	return out
}

func (s *eventSink) count(kind events.Kind) int {
	n := 0
	for _, k := range s.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

type failingBus struct{}

func (failingBus) Publish(context.Context, events.AwardEvent) error {
	return errors.New("bus down")
}
func (failingBus) StartForwarder(context.Context, func(events.AwardEvent)) error { return nil }
func (failingBus) Close() error                                                  { return nil }

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) Render(in CertificateArtwork) (bytes.Buffer, error) {
	r.calls++
	var buf bytes.Buffer
	if r.err != nil {
		return buf, r.err
	}
	buf.WriteString("png:" + in.CertificateID)
	return buf, nil
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (s *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	if s.err != nil {
		return s.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = raw
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) PublicURL(key string) string { return "https://cdn.example.com/" + key }
func (s *memoryStore) Close() error                { return nil }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func seedCertCourse(t *testing.T, h *harness) (*types.Course, *types.CertificateTemplate) {
	t.Helper()
	ctx := context.Background()
	tpl := testutil.SeedCertificateTemplate(t, ctx, h.db)
	course := testutil.SeedCourse(t, ctx, h.db, testutil.PtrUUID(tpl.ID))
	return course, tpl
}
