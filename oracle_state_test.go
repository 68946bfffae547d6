// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"net"
	"testing"
	"time"
)

func testSA(addr string, scope ScopeClass, family Family) SourceAddress {
	return SourceAddress{Family: family, IP: net.ParseIP(addr), Scope: scope}
}

func testDA(addr string, scope ScopeClass, family Family, role Role) DestinationAddress {
	return DestinationAddress{Family: family, IP: net.ParseIP(addr), Scope: scope, Role: role}
}

func TestUpsertPairRollingAverage(t *testing.T) {
	s := newState()
	sa := testSA("192.168.1.10", ScopeRFC1918, IPv4)
	da := testDA("203.0.113.5", ScopeV4Global, IPv4, RoleUser)

	s.upsertPair(sa, da, 100)
	s.upsertPair(sa, da, 200)

	pairs := s.snapshotPairs()
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", pairs[0].SampleCount)
	}
	if pairs[0].AvgLatencyMS != 150 {
		t.Errorf("AvgLatencyMS = %v, want 150", pairs[0].AvgLatencyMS)
	}
}

func TestUpsertPairCapsRollingWeight(t *testing.T) {
	s := newState()
	sa := testSA("192.168.1.10", ScopeRFC1918, IPv4)
	da := testDA("203.0.113.5", ScopeV4Global, IPv4, RoleUser)

	for i := 0; i < 32; i++ {
		s.upsertPair(sa, da, 100)
	}
	s.upsertPair(sa, da, 1000)

	pairs := s.snapshotPairs()
	// weight capped at 1/16: big jump should move the average by
	// exactly (1000-100)/16, not swamp it in one sample.
	want := 100 + (1000.0-100.0)/16.0
	if got := pairs[0].AvgLatencyMS; got != want {
		t.Errorf("AvgLatencyMS = %v, want %v", got, want)
	}
}

func TestRemovePairsForSA(t *testing.T) {
	s := newState()
	sa1 := testSA("192.168.1.10", ScopeRFC1918, IPv4)
	sa2 := testSA("192.168.1.11", ScopeRFC1918, IPv4)
	da := testDA("203.0.113.5", ScopeV4Global, IPv4, RoleUser)

	s.upsertPair(sa1, da, 10)
	s.upsertPair(sa2, da, 20)
	s.removePairsForSA(sa1)

	pairs := s.snapshotPairs()
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].SA.key() != sa2.key() {
		t.Errorf("remaining pair SA = %v, want %v", pairs[0].SA.IP, sa2.IP)
	}
}

func TestAddDADoesNotDowngradeRole(t *testing.T) {
	s := newState()
	gw := testDA("203.0.113.1", ScopeV4Global, IPv4, RoleLocalGateway)
	s.addDA(gw)

	dup := testDA("203.0.113.1", ScopeV4Global, IPv4, RoleUser)
	s.addDA(dup)

	got, ok := s.lookupDA(gw.key())
	if !ok {
		t.Fatal("DA missing")
	}
	if got.Role != RoleLocalGateway {
		t.Errorf("Role = %v, want %v (should not be downgraded)", got.Role, RoleLocalGateway)
	}
}

func TestGCUserDAsPreservesKeepFloor(t *testing.T) {
	s := newState()
	now := time.Now()
	for i := 0; i < 10; i++ {
		da := DestinationAddress{
			Family:   IPv4,
			IP:       net.ParseIP("203.0.113." + string(rune('0'+i))),
			Scope:    ScopeV4Global,
			Role:     RoleUser,
			LastUsed: now.Add(-time.Duration(i) * time.Hour),
		}
		s.addDA(da)
	}

	s.gcUserDAs(30*time.Minute, 8, 256)

	s.mu.Lock()
	n := len(s.das)
	s.mu.Unlock()
	if n != 8 {
		t.Errorf("got %d DAs remaining, want 8 (keep floor)", n)
	}
}

func TestGCUserDAsEnforcesMaxUserCap(t *testing.T) {
	s := newState()
	now := time.Now()
	for i := 0; i < 10; i++ {
		da := DestinationAddress{
			Family:   IPv4,
			IP:       net.ParseIP("203.0.113." + string(rune('0'+i))),
			Scope:    ScopeV4Global,
			Role:     RoleUser,
			LastUsed: now.Add(-time.Duration(i) * time.Minute),
		}
		s.addDA(da)
	}

	// Nothing is old enough for age-based removal, but the count cap
	// should still trim down to maxUser, oldest-last-used first.
	s.gcUserDAs(24*time.Hour, 2, 4)

	s.mu.Lock()
	n := len(s.das)
	s.mu.Unlock()
	if n != 4 {
		t.Errorf("got %d DAs remaining, want 4 (maxUser cap)", n)
	}
	mostRecent := testDA("203.0.113.0", ScopeV4Global, IPv4, RoleUser)
	if _, ok := s.lookupDA(mostRecent.key()); !ok {
		t.Error("most-recently-used DA was trimmed by the count cap")
	}
}

func TestGCUserDAsNeverRemovesNonUserRole(t *testing.T) {
	s := newState()
	gw := testDA("203.0.113.1", ScopeV4Global, IPv4, RoleLocalGateway)
	gw.LastUsed = time.Now().Add(-24 * time.Hour)
	s.addDA(gw)

	s.gcUserDAs(time.Minute, 0, 256)

	if _, ok := s.lookupDA(gw.key()); !ok {
		t.Error("non-user DA was garbage-collected")
	}
}

func TestClassifySuccessNPTv6(t *testing.T) {
	s := newState()
	sa := testSA("fd00::1", ScopeULA, IPv6)
	da := testDA("2001:db8::1", ScopeGUA, IPv6, RoleUser)

	s.classifySuccess(sa, da)

	flags := s.snapshotStatus()
	if !flags.NPTv6 {
		t.Error("NPTv6 not set after ULA->GUA success")
	}
}

func TestClassifySuccessNAT44(t *testing.T) {
	s := newState()
	sa := testSA("192.168.1.10", ScopeRFC1918, IPv4)
	da := testDA("203.0.113.5", ScopeV4Global, IPv4, RoleUser)

	s.classifySuccess(sa, da)

	flags := s.snapshotStatus()
	if !flags.NAT44 {
		t.Error("NAT44 not set after RFC1918->v4-global success")
	}
	if !flags.IPv4Ok {
		t.Error("IPv4Ok not set after v4->v4 success")
	}
}

func TestRecomputeFlagsPreservesNPTv6(t *testing.T) {
	s := newState()
	sa := testSA("fd00::1", ScopeULA, IPv6)
	da := testDA("2001:db8::1", ScopeGUA, IPv6, RoleUser)
	s.upsertPair(sa, da, 10)
	s.classifySuccess(sa, da)

	s.removePairsForSA(sa)
	s.recomputeFlags()

	if !s.snapshotStatus().NPTv6 {
		t.Error("NPTv6 must stay true once evidenced (spec §3 invariant: exists or existed)")
	}
}

func TestRecomputeFlagsClearsGUAOkWhenUnjustified(t *testing.T) {
	s := newState()
	sa := testSA("2001:db8::1", ScopeGUA, IPv6)
	da := testDA("2001:db8::2", ScopeGUA, IPv6, RoleUser)
	s.upsertPair(sa, da, 10)
	s.classifySuccess(sa, da)

	if !s.snapshotStatus().GUAOk {
		t.Fatal("GUAOk should be set before recompute")
	}

	s.removePairsForSA(sa)
	s.recomputeFlags()

	if s.snapshotStatus().GUAOk {
		t.Error("GUAOk should clear once no pair justifies it (spec §4.4)")
	}
}
