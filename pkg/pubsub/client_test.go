package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/orderbot-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "proj"}
	if got := c.topicResourceName("orders"); got != "projects/proj/topics/orders" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.topicResourceName("projects/other/topics/orders"); got != "projects/other/topics/orders" {
		t.Fatalf("full topic names should pass through, got %q", got)
	}
	if got := c.subscriptionResourceName("orders-sub"); got != "projects/proj/subscriptions/orders-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := c.subscriptionResourceName("  "); got != "" {
		t.Fatalf("blank subscription should resolve to empty, got %q", got)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("orders") != nil {
		t.Fatal("nil client should not hand out publishers")
	}
	if c.Subscription("orders") != nil {
		t.Fatal("nil client should not hand out subscribers")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error for nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op: %v", err)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}
