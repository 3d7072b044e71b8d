package telemetry

import "testing"

func TestPublishOnceFailsWhenNotConnected(t *testing.T) {
	p := NewPublisher(nil, fakeSource{}, MQTTConfig{Broker: "localhost:1883", Topic: "dqueue/health"})

	if err := p.PublishOnce(); err == nil {
		t.Fatal("PublishOnce succeeded without a connection")
	}

	published, errs := p.Stats()
	if published != 0 || errs != 1 {
		t.Fatalf("Stats() = (%d, %d), want (0, 1)", published, errs)
	}
}

func TestIsConnectedDefaultsFalse(t *testing.T) {
	p := NewPublisher(nil, fakeSource{}, MQTTConfig{})
	if p.IsConnected() {
		t.Fatal("IsConnected() = true before Connect was called")
	}
}
