package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/NxTech4021/dl-backend-sub000/internal/platform/resilience"
)

func TestClientNotify_PostsPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/notifications" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		var req notification
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if req.Kind != "RESULT_CONFIRMED" {
			t.Fatalf("unexpected kind: %s", req.Kind)
		}
		if len(req.UserIDs) != 2 {
			t.Fatalf("unexpected recipients: %v", req.UserIDs)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL: srv.URL,
		Token:   "secret",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled: false,
		},
	}, nil)

	err := client.Notify(context.Background(), []string{"user-a", "user-b"}, "RESULT_CONFIRMED", map[string]any{
		"final_score": "2-0",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestClientNotify_NoRecipientsIsNoop(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://unused.invalid"}, nil)
	if err := client.Notify(context.Background(), nil, "RESULT_CONFIRMED", nil); err != nil {
		t.Fatalf("notify without recipients: %v", err)
	}
}

func TestClientNotify_CircuitOpensOnServerFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL: srv.URL,
		Token:   "secret",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, nil)

	for i := 0; i < 2; i++ {
		if err := client.Notify(context.Background(), []string{"user-a"}, "DISPUTE_OPENED", nil); err == nil {
			t.Fatal("expected server failure")
		}
	}

	err := client.Notify(context.Background(), []string{"user-a"}, "DISPUTE_OPENED", nil)
	if err == nil {
		t.Fatal("expected circuit breaker rejection")
	}
	if got := client.breaker.State(); got != resilience.CircuitStateOpen {
		t.Fatalf("breaker state = %v, want open", got)
	}
}
