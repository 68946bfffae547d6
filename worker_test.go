// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"net"
	"testing"
	"time"
)

// fakeProber reports success for any (sa, da) pair whose key is in
// ok, failure otherwise.
type fakeProber struct {
	ok map[string]bool
}

func (f *fakeProber) Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult {
	if f.ok[sa.IP.String()+"->"+da.IP.String()] {
		return ProbeResult{Success: true, Latency: 5 * time.Millisecond}
	}
	return ProbeResult{Success: false, Reason: context.DeadlineExceeded}
}

func newTestOracle(prober Prober) *Oracle {
	o := New(DefaultConfig(), WithProber(prober))
	return o
}

func TestRunPollSweepUpsertsOnSuccess(t *testing.T) {
	sa := SourceAddress{Family: IPv4, IP: net.ParseIP("192.168.1.10"), Scope: ScopeRFC1918}
	da := DestinationAddress{Family: IPv4, IP: net.ParseIP("203.0.113.5"), Scope: ScopeV4Global, Role: RoleUser}

	o := newTestOracle(&fakeProber{ok: map[string]bool{"192.168.1.10->203.0.113.5": true}})
	o.st.setSources([]SourceAddress{sa})
	o.st.addDA(da)

	o.runPollSweep(context.Background())

	pairs := o.Snapshot()
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if !o.Status().NAT44 {
		t.Error("NAT44 should be inferred from the successful RFC1918->v4-global probe")
	}
}

func TestRunPollSweepRemovesOnFailure(t *testing.T) {
	sa := SourceAddress{Family: IPv4, IP: net.ParseIP("192.168.1.10"), Scope: ScopeRFC1918}
	da := DestinationAddress{Family: IPv4, IP: net.ParseIP("203.0.113.5"), Scope: ScopeV4Global, Role: RoleUser}

	o := newTestOracle(&fakeProber{})
	o.st.setSources([]SourceAddress{sa})
	o.st.addDA(da)
	o.st.upsertPair(sa, da, 10)

	o.runPollSweep(context.Background())

	if pairs := o.Snapshot(); len(pairs) != 0 {
		t.Errorf("got %d pairs after failing probe, want 0", len(pairs))
	}
}

func TestRunPollSweepSkipsIntrinsicallyInvalidPairs(t *testing.T) {
	sa := SourceAddress{Family: IPv6, IP: net.ParseIP("fe80::1"), Scope: ScopeLLA, ZoneID: "eth0"}
	da := DestinationAddress{Family: IPv6, IP: net.ParseIP("fe80::2"), Scope: ScopeLLA, Role: RoleUser, ZoneID: "eth1"}

	probeFn := &countingProber{}
	o := newTestOracle(probeFn)
	o.st.setSources([]SourceAddress{sa})
	o.st.addDA(da)

	o.runPollSweep(context.Background())

	if probeFn.calls != 0 {
		t.Errorf("Probe called %d times, want 0 (zone mismatch must be filtered before probing)", probeFn.calls)
	}
}

type countingProber struct {
	calls int
}

func (c *countingProber) Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult {
	c.calls++
	return ProbeResult{Success: false}
}
