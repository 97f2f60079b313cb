package stripe

import (
	"context"
	"testing"

	"github.com/angelmondragon/seedshop-backend/pkg/config"
)

func TestNewClientValidatesKeys(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{"test key", config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_1", Env: "test"}, false},
		{"restricted live key", config.StripeConfig{APIKey: "rk_live_123", Secret: "whsec_1", Env: "live"}, false},
		{"live key in test", config.StripeConfig{APIKey: "sk_live_123", Secret: "whsec_1", Env: "test"}, true},
		{"missing secret", config.StripeConfig{APIKey: "sk_test_123", Env: "test"}, true},
		{"missing key", config.StripeConfig{Secret: "whsec_1"}, true},
		{"unknown env", config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_1", Env: "staging"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(ctx, tc.cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Environment() != tc.cfg.Environment() {
				t.Fatalf("unexpected environment %q", client.Environment())
			}
			if client.Currency() != "brl" {
				t.Fatalf("expected default currency brl, got %q", client.Currency())
			}
		})
	}
}

func TestNilClientAccessors(t *testing.T) {
	var client *Client
	if client.Environment() != "" || client.Currency() != "brl" {
		t.Fatal("nil client accessors should return zero values")
	}
	if _, err := client.ConstructEvent([]byte("{}"), "sig"); err == nil {
		t.Fatal("expected missing secret error")
	}
}
