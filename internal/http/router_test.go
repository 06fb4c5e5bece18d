package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/licensing-crm-backend/internal/cache"
	"github.com/yungbote/licensing-crm-backend/internal/data/aggregates"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/data/repos/testutil"
	"github.com/yungbote/licensing-crm-backend/internal/domain/crm"
	httpH "github.com/yungbote/licensing-crm-backend/internal/http/handlers"
	httpMW "github.com/yungbote/licensing-crm-backend/internal/http/middleware"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/clock"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

const testToken = "s3cret-token"

type routerFixture struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	clk := clock.Real{}
	mem, err := cache.NewMemory(64, clk)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	memo := cache.NewMemo(mem, log)
	tx := aggregates.NewGormTxRunner(db)
	cal := services.NewCalendar(clk, time.UTC)

	leads := services.NewLeadService(log, tx, set.Lead, set.StatusHistory, set.Enrollment, nil, nil, memo, clk, services.LeadServiceConfig{})
	appointments := services.NewAppointmentService(log, set.Lead, set.Appointment, nil)
	payments := services.NewPaymentService(log, tx, set.Lead, set.Payment, leads, nil, nil, nil)
	calls := services.NewCallService(log, set.CallRecord)
	audit := services.NewAuditService(log, set.WebhookLog, set.AgentMetric, set.ChatHistory)
	dispatcher := services.NewDispatcher(log, set.Analytics, set.Lead, cal, nil, 0)
	ingestion := services.NewIngestionService(log, leads, calls, appointments, audit, dispatcher)
	authn := services.NewTokenAuthenticator(log, services.AuthConfig{StaticToken: testToken})

	engine := NewRouter(RouterConfig{
		Log:                log,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, authn),
		Audit:              audit,
		HealthHandler:      httpH.NewHealthHandler(),
		LeadHandler:        httpH.NewLeadHandler(leads),
		AppointmentHandler: httpH.NewAppointmentHandler(appointments),
		CallRecordHandler:  httpH.NewCallRecordHandler(calls),
		MCPHandler:         httpH.NewMCPHandler(log, dispatcher),
		WebhookHandler:     httpH.NewWebhookHandler(log, ingestion, payments),
		PublicHandler:      httpH.NewPublicHandler(ingestion),
	})
	engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	return &routerFixture{db: db, engine: engine}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *routerFixture) webhookRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&crm.WebhookLog{}).Count(&n).Error; err != nil {
		t.Fatalf("count webhook logs: %v", err)
	}
	return n
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthcheck(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	w = f.do(httptest.NewRequest(http.MethodGet, "/api/mcp/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Fatalf("mcp health: %d %s", w.Code, w.Body.String())
	}
}

func TestMCPRejectsMissingTokenWithoutAudit(t *testing.T) {
	f := newRouterFixture(t)
	for _, auth := range []string{"", "Bearer wrong", "Basic " + testToken} {
		req := jsonRequest(http.MethodPost, "/api/mcp", `{"query":"qualified_leads"}`)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := f.do(req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("auth %q: status = %d", auth, w.Code)
		}
	}
	if n := f.webhookRows(t); n != 0 {
		t.Fatalf("rejected calls must not be audited, got %d rows", n)
	}
}

func TestMCPAuthorizedQueryStreamsSingleFrame(t *testing.T) {
	f := newRouterFixture(t)
	req := jsonRequest(http.MethodPost, "/api/mcp", `{"query":"qualified_leads"}`)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("unexpected frame %q", body)
	}
	var frame map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(body, "data: "))), &frame); err != nil {
		t.Fatalf("frame json: %v", err)
	}
	if !strings.Contains(frame["result"], "0") {
		t.Fatalf("result = %q", frame["result"])
	}
	if n := f.webhookRows(t); n != 1 {
		t.Fatalf("expected 1 audit row, got %d", n)
	}
}

func TestMCPMalformedBodyAnswersUnknownQuery(t *testing.T) {
	f := newRouterFixture(t)
	req := jsonRequest(http.MethodPost, "/api/mcp", `{"query":`)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var frame map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(w.Body.String(), "data: "))), &frame); err != nil {
		t.Fatalf("frame json: %v body=%q", err, w.Body.String())
	}
	if frame["result"] != services.AnswerUnknownQuery {
		t.Fatalf("result = %q", frame["result"])
	}
}

func TestLeadCreateRejectsOutOfEnumLicenseAndSource(t *testing.T) {
	f := newRouterFixture(t)
	for _, body := range []string{
		`{"phone":"5550300009","license_goal":"bogus"}`,
		`{"phone":"5550300009","source":"nonsense"}`,
	} {
		if w := f.do(jsonRequest(http.MethodPost, "/api/leads", body)); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d body=%s", body, w.Code, w.Body.String())
		}
	}
	w := f.do(jsonRequest(http.MethodPost, "/api/leads", `{"phone":"5550300009","license_goal":"2-40","source":"referral"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("valid enums: %d %s", w.Code, w.Body.String())
	}
}

// With audit registered ahead of auth, even a rejected request leaves a row.
// The router must therefore order auth first.
func TestAuditBeforeAuthWouldRecordRejectedCalls(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	audit := services.NewAuditService(log, set.WebhookLog, set.AgentMetric, set.ChatHistory)
	authn := services.NewTokenAuthenticator(log, services.AuthConfig{StaticToken: testToken})
	am := httpMW.NewAuthMiddleware(log, authn)

	r := gin.New()
	r.POST("/audit-first", httpMW.WebhookAudit(log, audit), am.RequireBearer(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/auth-first", am.RequireBearer(), httpMW.WebhookAudit(log, audit), func(c *gin.Context) { c.Status(http.StatusOK) })

	count := func() int64 {
		var n int64
		if err := db.Model(&crm.WebhookLog{}).Count(&n).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth-first", strings.NewReader(`{}`)))
	if w.Code != http.StatusUnauthorized || count() != 0 {
		t.Fatalf("auth-first: status=%d rows=%d", w.Code, count())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/audit-first", strings.NewReader(`{}`)))
	if w.Code != http.StatusUnauthorized || count() != 1 {
		t.Fatalf("audit-first: status=%d rows=%d", w.Code, count())
	}
}

func TestInternalQueryRequiresBearer(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(jsonRequest(http.MethodPost, "/api/webhooks/internal-query", `{"query":"revenue_today"}`))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	req := jsonRequest(http.MethodPost, "/api/webhooks/internal-query", `{"query":"revenue_today"}`)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w = f.do(req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("authorized: %d %s", w.Code, w.Body.String())
	}
}

func TestPanicReturnsInternalErrorEnvelope(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "req-panic")
	w := f.do(req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["success"] != false || body["error"] != "Internal server error" || body["timestamp"] == "" {
		t.Fatalf("envelope = %v", body)
	}
	if body["request_id"] != "req-panic" {
		t.Fatalf("request_id = %v", body["request_id"])
	}
}

func TestLeadCreateDedupesByPhone(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(jsonRequest(http.MethodPost, "/api/leads", `{"phone":"(555) 030-0001","first_name":"Ana"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	w = f.do(jsonRequest(http.MethodPost, "/api/leads", `{"phone":"+1 555 030 0001","last_name":"Ortiz"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("dedupe: %d %s", w.Code, w.Body.String())
	}
	var out struct {
		Lead    crm.Lead `json:"lead"`
		Created bool     `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Created || out.Lead.FirstName != "Ana" || out.Lead.LastName != "Ortiz" || out.Lead.Phone != "+15550300001" {
		t.Fatalf("merged lead = %+v", out.Lead)
	}

	w = f.do(jsonRequest(http.MethodPost, "/api/leads", `{"phone":"n/a"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("phone without digits: %d", w.Code)
	}
}

func TestTwilioStopRepliesWithTwiML(t *testing.T) {
	f := newRouterFixture(t)
	form := url.Values{"From": {"+15550300002"}, "Body": {" stop "}, "MessageSid": {"SM1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/twilio-sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/xml") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Response><Message>You have been unsubscribed") {
		t.Fatalf("twiml = %s", body)
	}
	if n := f.webhookRows(t); n != 1 {
		t.Fatalf("expected 1 audit row, got %d", n)
	}

	var lead crm.Lead
	if err := f.db.Where("phone = ?", "+15550300002").First(&lead).Error; err != nil {
		t.Fatalf("lead: %v", err)
	}
	if lead.Status != crm.LeadStatusOptOut {
		t.Fatalf("status = %s", lead.Status)
	}
}

func TestPublicBookingValidation(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(jsonRequest(http.MethodPost, "/api/public/appointments", `{"name":"Ana"}`))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("missing fields: %d %s", w.Code, w.Body.String())
	}
	payload, _ := json.Marshal(map[string]any{
		"name":      "Ana Ortiz",
		"phone":     "555-030-0003",
		"date_time": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})
	w = f.do(jsonRequest(http.MethodPost, "/api/public/appointments", string(bytes.TrimSpace(payload))))
	if w.Code != http.StatusCreated {
		t.Fatalf("book: %d %s", w.Code, w.Body.String())
	}
	if n := f.webhookRows(t); n != 2 {
		t.Fatalf("expected 2 audit rows, got %d", n)
	}
}
