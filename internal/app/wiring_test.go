package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/realtime/bus"
)

func TestWiredRouterCompletesCourse(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cfg := Config{IdentityJWTSecret: "wiring-secret", ProgressCASAttempts: 3}
	metrics := observability.New()

	r := wireRepos(db, log)
	svcs, err := wireServices(serviceDeps{DB: db, Log: log, Cfg: cfg, Repos: r, Bus: bus.NewLocalBus(log), Metrics: metrics})
	if err != nil {
		t.Fatalf("wireServices: %v", err)
	}
	router := wireRouter(log, cfg, metrics, wireHandlers(log, svcs), wireMiddleware(log, svcs))

	tpl := testutil.SeedCertificateTemplate(t, ctx, db)
	course := testutil.SeedCourse(t, ctx, db, &tpl.ID)
	lessons := testutil.SeedPublishedLessons(t, ctx, db, course.ID, 2)
	userID := uuid.New()
	testutil.SeedEnrollment(t, ctx, db, userID, course.ID, types.EnrollmentStatusActive)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(cfg.IdentityJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	var last struct {
		Progress        int    `json:"progress"`
		Status          string `json:"status"`
		CourseCompleted bool   `json:"course_completed"`
	}
	for _, l := range lessons {
		rec := do(http.MethodPost, "/api/courses/"+course.ID.String()+"/lessons/"+l.ID.String()+"/complete")
		if rec.Code != http.StatusOK {
			t.Fatalf("complete: want=200 got=%d body=%s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &last); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	if last.Progress != 100 || last.Status != types.EnrollmentStatusCompleted || !last.CourseCompleted {
		t.Fatalf("final: got=%+v", last)
	}

	rec := do(http.MethodGet, "/api/me/certificates")
	var certs struct {
		Certificates []types.Certificate `json:"certificates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &certs); err != nil {
		t.Fatalf("decode certificates: %v", err)
	}
	if len(certs.Certificates) != 1 {
		t.Fatalf("certificates: want=1 got=%d", len(certs.Certificates))
	}

	verify := httptest.NewRecorder()
	router.ServeHTTP(verify, httptest.NewRequest(http.MethodGet, "/api/certificates/"+certs.Certificates[0].CertificateID, nil))
	if verify.Code != http.StatusOK {
		t.Fatalf("verify: want=200 got=%d", verify.Code)
	}

	other := do(http.MethodPost, "/api/courses/"+uuid.NewString()+"/lessons/"+lessons[0].ID.String()+"/complete")
	if other.Code != http.StatusForbidden {
		t.Fatalf("not enrolled: want=403 got=%d", other.Code)
	}
}
