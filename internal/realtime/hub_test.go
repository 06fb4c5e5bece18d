package realtime

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())

	clientA := hub.NewSSEClient()
	hub.AddChannel(clientA, DefaultChannel)

	hub.Broadcast(SSEMessage{Channel: DefaultChannel, Event: SSEEventLeadCreated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: DefaultChannel, Event: SSEEventLeadStatusChanged, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventLeadCreated {
		t.Fatalf("first event: got %s", got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventLeadStatusChanged {
		t.Fatalf("second event: got %s", got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(DefaultChannel); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}

	clientB := hub.NewSSEClient()
	hub.AddChannel(clientB, DefaultChannel)
	hub.Broadcast(SSEMessage{Channel: DefaultChannel, Event: SSEEventEnrollmentCreated})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventEnrollmentCreated {
		t.Fatalf("reconnect event: got %s", got.Event)
	}
}

func TestSSEHubBroadcastDoesNotBlockOnFullBuffer(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, DefaultChannel)

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(client.Outbound)+10; i++ {
			hub.Broadcast(SSEMessage{Channel: DefaultChannel, Event: SSEEventLeadUpdated})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked")
	}
	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("expected full buffer, got %d", len(client.Outbound))
	}
}

func TestSSEHubServeHTTPWritesFrames(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, DefaultChannel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}

	hub.Broadcast(SSEMessage{Channel: DefaultChannel, Event: SSEEventPaymentUpdated, Data: map[string]any{"id": 7}})

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 || lines[0] != "event: PaymentUpdated" || !strings.Contains(lines[1], `"event":"PaymentUpdated"`) {
		t.Fatalf("unexpected frame %v", lines)
	}
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, SSEMessage) error {
	p.calls++
	return errors.New("redis down")
}

func TestEmitterFallsBackToLocalHub(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, DefaultChannel)

	pub := &failingPublisher{}
	em := NewEmitter(logger.Nop(), hub, pub, "")
	em.Emit(context.Background(), SSEEventLeadCreated, map[string]any{"id": 1})

	if pub.calls != 1 {
		t.Fatalf("expected publish attempt")
	}
	if got := recvMessage(t, client.Outbound, time.Second); got.Event != SSEEventLeadCreated || got.Channel != DefaultChannel {
		t.Fatalf("unexpected message %+v", got)
	}
}
