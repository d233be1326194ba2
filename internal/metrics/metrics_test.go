package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequests.WithLabelValues("ok"))
	ProviderRequests.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(ProviderRequests.WithLabelValues("ok")); got != before+1 {
		t.Fatalf("provider ok counter = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(ItemOutcomes.WithLabelValues("updated"))
	ItemOutcomes.WithLabelValues("updated").Add(2)
	if got := testutil.ToFloat64(ItemOutcomes.WithLabelValues("updated")); got != before+2 {
		t.Fatalf("outcome counter = %v, want %v", got, before+2)
	}
}

func TestGaugesSet(t *testing.T) {
	CooldownActive.Set(1)
	if got := testutil.ToFloat64(CooldownActive); got != 1 {
		t.Fatalf("cooldown gauge = %v", got)
	}
	CooldownActive.Set(0)
	QuotaRemaining.Set(42)
	if got := testutil.ToFloat64(QuotaRemaining); got != 42 {
		t.Fatalf("quota gauge = %v", got)
	}
}

func TestCollectorsLint(t *testing.T) {
	problems, err := testutil.CollectAndLint(ProviderRequestDuration)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(problems) > 0 {
		t.Fatalf("lint problems: %v", problems)
	}
}
