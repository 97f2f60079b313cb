package redis

import "testing"

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.CartKey("user"):                  "seedshop:cart:user",
		client.IdempotencyKey("scope", "id"):    "seedshop:idempotency:scope:id",
		client.RateLimitKey("checkout"):         "seedshop:rate_limit:checkout",
		client.LockKey("cron"):                  "seedshop:lock:cron",
		client.WebhookEventKey("stripe", "evt"): "seedshop:webhook:stripe:evt",
		client.WebhookEventKey("stripe", " "):   "seedshop:webhook:stripe",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}
