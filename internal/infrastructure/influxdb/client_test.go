package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	cfg := config.InfluxDBConfig{Enabled: false}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect(disabled) error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:19999",
		Token:   "test-token",
		Org:     "roomcast",
		Bucket:  "announcements",
	}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect(unreachable) error = %v, want ErrConnectionFailed", err)
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWrite_DisconnectedIsNoOp(t *testing.T) {
	c := &Client{}

	// Must not panic when the client never connected.
	c.WriteDelivery("ann-1", "kitchen", "delivered", "", 100)
	c.WriteAnnouncement("ann-1", 2, 2, 250)
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}
