package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
)

func TestBuildClientOptions_BrokerURL(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "broker.local",
			Port:     1883,
			ClientID: "homehub-test",
		},
		Reconnect: config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
	}

	opts := buildClientOptions(cfg)

	servers := opts.Servers
	if len(servers) != 1 {
		t.Fatalf("expected 1 broker URL, got %d", len(servers))
	}
	if servers[0].Scheme != "tcp" {
		t.Errorf("scheme = %q, want tcp for non-TLS", servers[0].Scheme)
	}
	if servers[0].Host != "broker.local:1883" {
		t.Errorf("host = %q, want broker.local:1883", servers[0].Host)
	}
}

func TestBuildClientOptions_TLSScheme(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host: "broker.local",
			Port: 8883,
			TLS:  true,
		},
	}

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl for TLS broker", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil {
		t.Error("TLS config should be set when TLS is enabled")
	}
}

func TestBuildStatusPayload(t *testing.T) {
	payload := buildStatusPayload("offline", "homehub-core", "graceful_shutdown")

	var status statusPayload
	if err := json.Unmarshal(payload, &status); err != nil {
		t.Fatalf("status payload should be valid JSON: %v", err)
	}

	if status.Status != "offline" {
		t.Errorf("status = %q, want offline", status.Status)
	}
	if status.ClientID != "homehub-core" {
		t.Errorf("client_id = %q, want homehub-core", status.ClientID)
	}
	if status.Reason != "graceful_shutdown" {
		t.Errorf("reason = %q, want graceful_shutdown", status.Reason)
	}
	if status.Timestamp == "" {
		t.Error("timestamp should be set")
	}
}

func TestBuildStatusPayload_OnlineOmitsReason(t *testing.T) {
	payload := buildStatusPayload("online", "homehub-core", "")

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := decoded["reason"]; present {
		t.Error("online payload should omit empty reason")
	}
}
