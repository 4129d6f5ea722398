package config

import "testing"

func TestBrokers(t *testing.T) {
	cfg := &Config{KafkaBrokers: "broker-1:9092, broker-2:9092 ,,broker-3:9092"}

	got := cfg.Brokers()
	want := []string{"broker-1:9092", "broker-2:9092", "broker-3:9092"}
	if len(got) != len(want) {
		t.Fatalf("Brokers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Brokers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsedAPIKeys(t *testing.T) {
	cfg := &Config{APIKeys: "ops-key=ops-dashboard, support-key=support,bare-key"}

	keys := cfg.ParsedAPIKeys()
	if keys["ops-key"] != "ops-dashboard" {
		t.Errorf("ops-key -> %q", keys["ops-key"])
	}
	if keys["support-key"] != "support" {
		t.Errorf("support-key -> %q", keys["support-key"])
	}
	if keys["bare-key"] != "default" {
		t.Errorf("bare-key -> %q", keys["bare-key"])
	}
	if len(keys) != 3 {
		t.Errorf("len = %d, want 3", len(keys))
	}
}
