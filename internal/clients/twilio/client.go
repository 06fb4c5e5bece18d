package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/ctxutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/envutil"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/httpx"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

type Client interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error)
	SendSMS(ctx context.Context, to string, body string) (*Message, error)
}

type Config struct {
	AccountSID                 string
	AuthToken                  string
	APIKey                     string
	APIKeySecret               string
	BaseURL                    string
	DefaultFrom                string
	DefaultMessagingServiceSID string
	DefaultStatusCallbackURL   string
	Timeout                    time.Duration
	// MaxRetries defaults to 0: SMS side effects are best-effort.
	MaxRetries int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		AccountSID:                 envutil.String("TWILIO_ACCOUNT_SID", "", log),
		AuthToken:                  envutil.String("TWILIO_AUTH_TOKEN", "", log),
		APIKey:                     envutil.String("TWILIO_API_KEY", "", log),
		APIKeySecret:               envutil.String("TWILIO_API_KEY_SECRET", "", log),
		BaseURL:                    envutil.String("TWILIO_BASE_URL", "", log),
		DefaultFrom:                envutil.String("TWILIO_PHONE_NUMBER", envutil.String("TWILIO_FROM_NUMBER", "", log), log),
		DefaultMessagingServiceSID: envutil.String("TWILIO_MESSAGING_SERVICE_SID", "", log),
		DefaultStatusCallbackURL:   envutil.String("TWILIO_STATUS_CALLBACK_URL", "", log),
		Timeout:                    envutil.Duration("TWILIO_TIMEOUT", 15*time.Second, log),
		MaxRetries:                 envutil.Int("TWILIO_MAX_RETRIES", 0, log),
	}
}

// Configured reports whether credentials are present at all.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.AccountSID) != ""
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv(log))
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("missing TWILIO_ACCOUNT_SID")
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APIKeySecret = strings.TrimSpace(cfg.APIKeySecret)
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	if cfg.APIKey != "" {
		if cfg.APIKeySecret == "" {
			return nil, fmt.Errorf("missing TWILIO_API_KEY_SECRET (required when TWILIO_API_KEY is set)")
		}
	} else if cfg.AuthToken == "" {
		return nil, fmt.Errorf("missing TWILIO_AUTH_TOKEN (or provide TWILIO_API_KEY + TWILIO_API_KEY_SECRET)")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" && strings.TrimSpace(cfg.DefaultMessagingServiceSID) == "" {
		return nil, fmt.Errorf("missing TWILIO_PHONE_NUMBER (or TWILIO_MESSAGING_SERVICE_SID)")
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &client{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type SendMessageRequest struct {
	To                  string
	From                string
	MessagingServiceSID string
	Body                string
	StatusCallbackURL   string
}

type Message struct {
	SID                 string  `json:"sid,omitempty"`
	AccountSID          string  `json:"account_sid,omitempty"`
	To                  string  `json:"to,omitempty"`
	From                string  `json:"from,omitempty"`
	Body                string  `json:"body,omitempty"`
	MessagingServiceSID string  `json:"messaging_service_sid,omitempty"`
	Status              string  `json:"status,omitempty"`
	NumSegments         string  `json:"num_segments,omitempty"`
	ErrorCode           *int    `json:"error_code,omitempty"`
	ErrorMessage        *string `json:"error_message,omitempty"`
	DateCreated         string  `json:"date_created,omitempty"`
}

func (c *client) SendSMS(ctx context.Context, to string, body string) (*Message, error) {
	return c.SendMessage(ctx, SendMessageRequest{To: to, Body: body})
}

func (c *client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("twilio client unavailable")
	}

	req.To = strings.TrimSpace(req.To)
	req.From = strings.TrimSpace(req.From)
	req.MessagingServiceSID = strings.TrimSpace(req.MessagingServiceSID)
	req.Body = strings.TrimSpace(req.Body)
	req.StatusCallbackURL = strings.TrimSpace(req.StatusCallbackURL)

	if req.To == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	if req.Body == "" {
		return nil, fmt.Errorf("twilio: Body required")
	}
	if req.From == "" {
		req.From = strings.TrimSpace(c.cfg.DefaultFrom)
	}
	if req.MessagingServiceSID == "" {
		req.MessagingServiceSID = strings.TrimSpace(c.cfg.DefaultMessagingServiceSID)
	}
	if req.StatusCallbackURL == "" {
		req.StatusCallbackURL = strings.TrimSpace(c.cfg.DefaultStatusCallbackURL)
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("Body", req.Body)
	if req.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", req.MessagingServiceSID)
	} else {
		form.Set("From", req.From)
	}
	if req.StatusCallbackURL != "" {
		form.Set("StatusCallback", req.StatusCallbackURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	var out *Message
	err := httpx.Do(ctxutil.Default(ctx), c.log, "twilio", c.cfg.MaxRetries, func(ctx context.Context) (*http.Response, error) {
		msg, resp, err := doFormOnce[Message](c, ctx, http.MethodPost, endpoint, form)
		out = msg
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "twilio: <nil error>"
	}
	if e.APIError != nil && strings.TrimSpace(e.APIError.Message) != "" {
		if e.APIError.Code != 0 {
			return fmt.Sprintf("twilio http %d: %s (code=%d)", e.StatusCode, e.APIError.Message, e.APIError.Code)
		}
		return fmt.Sprintf("twilio http %d: %s", e.StatusCode, e.APIError.Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("twilio http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) basicAuth() (user, pass string) {
	if c.cfg.APIKey != "" {
		return c.cfg.APIKey, c.cfg.APIKeySecret
	}
	return c.cfg.AccountSID, c.cfg.AuthToken
}

func doFormOnce[T any](c *client, ctx context.Context, method, urlStr string, form url.Values) (*T, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	u, p := c.basicAuth()
	req.SetBasicAuth(u, p)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && strings.TrimSpace(ae.Message) != "" {
			return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw), APIError: &ae}
		}
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(raw) == 0 {
		return &out, resp, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, fmt.Errorf("twilio decode error: %w", err)
	}
	return &out, resp, nil
}
