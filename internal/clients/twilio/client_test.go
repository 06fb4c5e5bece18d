package twilio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if _, err := New(logger.Nop(), Config{AccountSID: "AC1", AuthToken: "tok"}); err == nil {
		t.Fatalf("expected error without sender")
	}
	if _, err := New(logger.Nop(), Config{AccountSID: "AC1", AuthToken: "tok", DefaultFrom: "+15550000000"}); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestSendSMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC1/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC1" || pass != "tok" {
			t.Errorf("unexpected basic auth %q %q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.PostForm.Get("To") != "+15551112222" || r.PostForm.Get("From") != "+15550000000" || r.PostForm.Get("Body") != "hello" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{AccountSID: "AC1", AuthToken: "tok", DefaultFrom: "+15550000000", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg, err := c.SendSMS(context.Background(), "+15551112222", "hello")
	if err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if msg.SID != "SM123" || msg.Status != "queued" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestSendSMSDoesNotRetryByDefault(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":20503,"message":"Service unavailable"}`))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{AccountSID: "AC1", AuthToken: "tok", DefaultFrom: "+15550000000", BaseURL: srv.URL})
	_, err := c.SendSMS(context.Background(), "+15551112222", "hello")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected HTTPError 503, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
}
