package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/http/response"
	"github.com/yungbote/kinship-backend/internal/observability"
	"github.com/yungbote/kinship-backend/internal/platform/ctxutil"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
	"github.com/yungbote/kinship-backend/internal/services"
)

type fakeIdentity struct {
	rd  *ctxutil.RequestData
	err error
	got string
}

func (f *fakeIdentity) Resolve(_ context.Context, token string) (*ctxutil.RequestData, error) {
	f.got = token
	return f.rd, f.err
}

func authRouter(id services.IdentityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	am := NewAuthMiddleware(logger.Nop(), id)
	r.GET("/api/me", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.UserID(c.Request.Context()).String())
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name   string
		header string
		query  string
		id     *fakeIdentity
		status int
		code   string
	}{
		{"missing token", "", "", &fakeIdentity{}, http.StatusUnauthorized, "unauthorized"},
		{"invalid token", "Bearer bad", "", &fakeIdentity{err: services.ErrInvalidToken}, http.StatusUnauthorized, "unauthorized"},
		{"unknown principal", "Bearer tok", "", &fakeIdentity{err: services.ErrUnknownPrincipal}, http.StatusForbidden, "forbidden"},
		{"nil user", "Bearer tok", "", &fakeIdentity{rd: &ctxutil.RequestData{}}, http.StatusForbidden, "forbidden"},
		{"lookup failure", "Bearer tok", "", &fakeIdentity{err: errors.New("db down")}, http.StatusInternalServerError, "internal"},
		{"bearer ok", "bearer tok", "", &fakeIdentity{rd: &ctxutil.RequestData{UserID: userID}}, http.StatusOK, ""},
		{"query ok", "", "tok", &fakeIdentity{rd: &ctxutil.RequestData{UserID: userID}}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			authRouter(tt.id).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status: want=%d got=%d body=%s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				if rec.Body.String() != userID.String() {
					t.Fatalf("user: want=%s got=%s", userID, rec.Body.String())
				}
				if tt.id.got != "tok" {
					t.Fatalf("token: want=tok got=%q", tt.id.got)
				}
				return
			}
			var env response.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tt.code {
				t.Fatalf("code: want=%s got=%s", tt.code, env.Error.Code)
			}
		})
	}
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-1" || seen.TraceID == "" {
		t.Fatalf("trace data: got=%+v", seen)
	}
	if rec.Header().Get("X-Request-Id") != "req-1" {
		t.Fatalf("header: want=req-1 got=%q", rec.Header().Get("X-Request-Id"))
	}
	if rec.Header().Get("X-Trace-Id") != seen.TraceID {
		t.Fatalf("trace header: want=%s got=%s", seen.TraceID, rec.Header().Get("X-Trace-Id"))
	}
}

func TestMetricsRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/courses/:id/enrollment", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses/abc/enrollment", nil))

	var sb strings.Builder
	if err := m.WritePrometheus(&sb); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := sb.String()
	want := `kin_api_requests_total{method="GET",route="/api/courses/:id/enrollment",status="500"} 1.000000`
	if !strings.Contains(out, want) {
		t.Fatalf("missing %q in:\n%s", want, out)
	}
	if !strings.Contains(out, "kin_api_requests_error_total 1.000000") {
		t.Fatalf("missing error counter in:\n%s", out)
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger.Nop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status: want=%d got=%d", http.StatusTeapot, rec.Code)
	}
}
