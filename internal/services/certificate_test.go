package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kinship-backend/internal/domain"
	domainagg "github.com/yungbote/kinship-backend/internal/domain/aggregates"
	"github.com/yungbote/kinship-backend/internal/domain/events"
)

var certificateIDPattern = regexp.MustCompile(`^CERT-\d+-\d{1,3}$`)

func (h *harness) certificateService(mut func(*CertificateServiceDeps)) CertificateService {
	deps := CertificateServiceDeps{
		Log:          h.log,
		Courses:      h.courses,
		Templates:    h.templates,
		Certificates: h.certRepo,
		Enrollments:  h.enrollments,
		Notifier:     h.notifier,
		Metrics:      h.metrics,
	}
	if mut != nil {
		mut(&deps)
	}
	return NewCertificateService(deps)
}

func TestNewCertificateIDFormat(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	for i := 0; i < 200; i++ {
		id := NewCertificateID(at)
		if !certificateIDPattern.MatchString(id) {
			t.Fatalf("id %q does not match %s", id, certificateIDPattern)
		}
		if !strings.HasPrefix(id, "CERT-1700000000123-") {
			t.Fatalf("id %q does not carry the epoch millis", id)
		}
	}
}

func TestIssueCertificateIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course, tpl := seedCertCourse(t, h)
	userID := uuid.New()

	first, issued, err := h.certificates.IssueCertificateIfEligible(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if !issued || first == nil {
		t.Fatalf("first issue: want issued certificate got issued=%v cert=%v", issued, first)
	}
	if !certificateIDPattern.MatchString(first.CertificateID) {
		t.Fatalf("certificate id %q malformed", first.CertificateID)
	}
	if first.TemplateID != tpl.ID {
		t.Fatalf("template: want=%s got=%s", tpl.ID, first.TemplateID)
	}

	second, issued, err := h.certificates.IssueCertificateIfEligible(ctx, userID, course.ID)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if issued {
		t.Fatalf("second issue: want issued=false")
	}
	if second == nil || second.CertificateID != first.CertificateID {
		t.Fatalf("second issue: want existing %s got=%v", first.CertificateID, second)
	}
	if n := h.certificateCount(t, userID, course.ID); n != 1 {
		t.Fatalf("certificates: want=1 got=%d", n)
	}
	if n := h.events.count(events.KindCertificateIssued); n != 1 {
		t.Fatalf("certificate events: want=1 got=%d", n)
	}
}

func TestIssueCertificateConcurrentCallersShareOneRow(t *testing.T) {
	h := newHarness(t)
	course, _ := seedCertCourse(t, h)
	userID := uuid.New()

	const callers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ids    = map[string]int{}
		issued int
		errs   []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cert, minted, err := h.certificates.IssueCertificateIfEligible(context.Background(), userID, course.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[cert.CertificateID]++
			if minted {
				issued++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if issued != 1 {
		t.Fatalf("issued: want=1 got=%d", issued)
	}
	if len(ids) != 1 {
		t.Fatalf("distinct certificate ids: want=1 got=%v", ids)
	}
	if n := h.certificateCount(t, userID, course.ID); n != 1 {
		t.Fatalf("certificates: want=1 got=%d", n)
	}
}

func TestIssueCertificatePreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	plain := testutil.SeedCourse(t, ctx, h.db, nil)
	cert, issued, err := h.certificates.IssueCertificateIfEligible(ctx, uuid.New(), plain.ID)
	if err != nil || issued || cert != nil {
		t.Fatalf("no template: want (nil,false,nil) got (%v,%v,%v)", cert, issued, err)
	}

	_, _, err = h.certificates.IssueCertificateIfEligible(ctx, uuid.New(), uuid.New())
	if !errors.Is(err, domainagg.ErrNotFound) {
		t.Fatalf("missing course: want not_found got=%v", err)
	}

	dangling := testutil.SeedCourse(t, ctx, h.db, testutil.PtrUUID(uuid.New()))
	_, _, err = h.certificates.IssueCertificateIfEligible(ctx, uuid.New(), dangling.ID)
	if !errors.Is(err, domainagg.ErrNotFound) {
		t.Fatalf("missing template: want not_found got=%v", err)
	}

	course, tpl := seedCertCourse(t, h)
	if err := h.db.Model(&types.CertificateTemplate{}).Where("id = ?", tpl.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate template: %v", err)
	}
	_, _, err = h.certificates.IssueCertificateIfEligible(ctx, uuid.New(), course.ID)
	if !errors.Is(err, domainagg.ErrNotFound) {
		t.Fatalf("inactive template: want not_found got=%v", err)
	}

	_, _, err = h.certificates.IssueCertificateIfEligible(ctx, uuid.Nil, course.ID)
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("nil user: want validation got=%v", err)
	}
}

func TestIssueCertificateRegeneratesCollidingID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course, _ := seedCertCourse(t, h)

	calls := 0
	svc := h.certificateService(func(d *CertificateServiceDeps) {
		d.NewID = func(time.Time) string {
			calls++
			if calls <= 2 {
				return "CERT-1-1"
			}
			return fmt.Sprintf("CERT-1-%d", calls)
		}
	})

	other, issued, err := svc.IssueCertificateIfEligible(ctx, uuid.New(), course.ID)
	if err != nil || !issued || other.CertificateID != "CERT-1-1" {
		t.Fatalf("first user: got (%v,%v,%v)", other, issued, err)
	}
	mine, issued, err := svc.IssueCertificateIfEligible(ctx, uuid.New(), course.ID)
	if err != nil {
		t.Fatalf("second user: %v", err)
	}
	if !issued || mine.CertificateID != "CERT-1-3" {
		t.Fatalf("second user: want fresh CERT-1-3 got issued=%v id=%v", issued, mine)
	}
}

func TestIssueCertificateGivesUpAfterRepeatedCollisions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course, _ := seedCertCourse(t, h)
	svc := h.certificateService(func(d *CertificateServiceDeps) {
		d.NewID = func(time.Time) string { return "CERT-7-7" }
	})
	if _, _, err := svc.IssueCertificateIfEligible(ctx, uuid.New(), course.ID); err != nil {
		t.Fatalf("seed certificate: %v", err)
	}
	_, _, err := svc.IssueCertificateIfEligible(ctx, uuid.New(), course.ID)
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict after exhausting ids got=%v", err)
	}
}

func TestIssueCertificateArtwork(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course, _ := seedCertCourse(t, h)
	store := &memoryStore{}
	renderer := &fakeRenderer{}
	svc := h.certificateService(func(d *CertificateServiceDeps) {
		d.Renderer = renderer
		d.Store = store
	})

	userID := uuid.New()
	cert, issued, err := svc.IssueCertificateIfEligible(ctx, userID, course.ID)
	if err != nil || !issued {
		t.Fatalf("issue: (%v,%v)", issued, err)
	}
	wantKey := fmt.Sprintf("certificates/%s/%s.png", userID, strings.ToLower(cert.CertificateID))
	if cert.ImageKey != wantKey {
		t.Fatalf("image key: want=%q got=%q", wantKey, cert.ImageKey)
	}
	if string(store.objects[wantKey]) != "png:"+cert.CertificateID {
		t.Fatalf("uploaded object mismatch: %q", store.objects[wantKey])
	}
	saved, err := h.certRepo.GetByUserAndCourse(ctx, nil, userID, course.ID)
	if err != nil || saved == nil {
		t.Fatalf("reload: %v", err)
	}
	if saved.ImageURL != "https://cdn.example.com/"+wantKey {
		t.Fatalf("saved image url: got=%q", saved.ImageURL)
	}
}

func TestIssueCertificateArtworkFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course, _ := seedCertCourse(t, h)
	svc := h.certificateService(func(d *CertificateServiceDeps) {
		d.Renderer = &fakeRenderer{}
		d.Store = &memoryStore{err: errors.New("bucket unavailable")}
	})
	cert, issued, err := svc.IssueCertificateIfEligible(ctx, uuid.New(), course.ID)
	if err != nil || !issued {
		t.Fatalf("issue: (%v,%v)", issued, err)
	}
	if cert.ImageURL != "" {
		t.Fatalf("image url: want empty got=%q", cert.ImageURL)
	}
	if !strings.Contains(h.metricsText(t), `kin_secondary_effect_failures_total{stage="certificate_upload"} 1.000000`) {
		t.Fatalf("upload failure not counted")
	}
}

func TestVerifyCertificate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	course, _ := seedCertCourse(t, h)
	cert, _, err := h.certificates.IssueCertificateIfEligible(ctx, uuid.New(), course.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := h.certificates.Verify(ctx, " "+cert.CertificateID+" ")
	if err != nil || got.ID != cert.ID {
		t.Fatalf("verify: got (%v,%v)", got, err)
	}
	if _, err := h.certificates.Verify(ctx, "CERT-0-0"); !errors.Is(err, domainagg.ErrNotFound) {
		t.Fatalf("unknown id: want not_found got=%v", err)
	}
	if _, err := h.certificates.Verify(ctx, "nope"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("malformed id: want validation got=%v", err)
	}

	if err := h.db.Model(&types.Certificate{}).Where("id = ?", cert.ID).Update("status", types.CertificateStatusRevoked).Error; err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := h.certificates.Verify(ctx, cert.CertificateID); !errors.Is(err, domainagg.ErrNotFound) {
		t.Fatalf("revoked: want not_found got=%v", err)
	}
}
