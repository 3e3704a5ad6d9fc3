package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/fulfillment-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		name      string
		projectID string
		topic     string
		want      string
	}{
		{name: "short id", projectID: "proj", topic: "fulfillment-events", want: "projects/proj/topics/fulfillment-events"},
		{name: "full name kept", projectID: "proj", topic: "projects/other/topics/x", want: "projects/other/topics/x"},
		{name: "blank topic", projectID: "proj", topic: "  ", want: ""},
		{name: "missing project", projectID: "", topic: "x", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := topicResourceName(tc.projectID, tc.topic); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNewClientRequiresProjectID(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{FulfillmentTopic: "x"}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestClientOptionsUsesCredentialsJSON(t *testing.T) {
	if got := len(clientOptions(config.GCPConfig{})); got != 0 {
		t.Fatalf("expected no options, got %d", got)
	}
	if got := len(clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`})); got != 1 {
		t.Fatalf("expected credentials option, got %d", got)
	}
}

func TestNilClientPublisher(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil {
		t.Fatalf("expected nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
