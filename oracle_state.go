// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"sync"
	"time"
)

// Flags are the six connectivity booleans plus bookkeeping, returned
// by Status (spec §3 Connectivity flags, §6 status()).
type Flags struct {
	GUAOk      bool
	ULAOk      bool
	LLAOk      bool
	NPTv6      bool
	IPv4Ok     bool
	NAT44      bool
	ULAPresent bool
	NPTv6Tried bool
	NAT44Tried bool
	Gateway6   string
	Gateway4   string
}

// state is the oracle's shared, mutable data, protected by a single
// coarse lock (spec §5). All mutation happens inside the lock;
// readers also take the lock and copy out what they need so they
// never observe a torn pair table.
type state struct {
	mu sync.Mutex

	sas   map[saKey]SourceAddress
	das   map[daKey]DestinationAddress
	pairs map[pairKey]Pair

	flags Flags
}

func newState() *state {
	return &state{
		sas:   make(map[saKey]SourceAddress),
		das:   make(map[daKey]DestinationAddress),
		pairs: make(map[pairKey]Pair),
	}
}

// setSources replaces the SA set wholesale, as HostInventory.Refresh
// produces a full snapshot rather than incremental deltas.
func (s *state) setSources(sas []SourceAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[saKey]SourceAddress, len(sas))
	for _, sa := range sas {
		m[sa.key()] = sa
	}
	s.sas = m
}

// currentSources returns a copy of the current SA set.
func (s *state) currentSources() []SourceAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourcesLocked()
}

func (s *state) sourcesLocked() []SourceAddress {
	out := make([]SourceAddress, 0, len(s.sas))
	for _, sa := range s.sas {
		out = append(out, sa)
	}
	return out
}

// snapshotSourcesAndDAs copies out the current SA and DA sets for the
// poll worker to cross-product outside the lock (spec §4.5 step 1,
// §5 "no blocking I/O in critical sections").
func (s *state) snapshotSourcesAndDAs() ([]SourceAddress, []DestinationAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sas := s.sourcesLocked()
	das := make([]DestinationAddress, 0, len(s.das))
	for _, da := range s.das {
		das = append(das, da)
	}
	return sas, das
}

// upsertPair inserts or updates the pair for (sa, da), applying an
// exponential rolling average capped at maxRollingSamples (spec
// §4.4, §9 "Rolling latency").
func (s *state) upsertPair(sa SourceAddress, da DestinationAddress, latencyMS float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pk := pairKey{sa: sa.key(), da: da.key()}
	p, ok := s.pairs[pk]
	if !ok {
		p = Pair{SA: sa, DA: da}
	}
	p.SampleCount++
	n := p.SampleCount
	if n > maxRollingSamples {
		n = maxRollingSamples
	}
	if p.SampleCount == 1 {
		p.AvgLatencyMS = latencyMS
	} else {
		p.AvgLatencyMS += (latencyMS - p.AvgLatencyMS) / float64(n)
	}
	p.LastSuccessAt = time.Now()
	s.pairs[pk] = p
}

// removePair erases the pair for (sa, da) if present.
func (s *state) removePair(sa SourceAddress, da DestinationAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pairs, pairKey{sa: sa.key(), da: da.key()})
}

// removePairsForSA cascades an inventory shrink: every pair whose SA
// departed is erased atomically (spec invariant: a pair's SA is
// always drawn from the current inventory).
func (s *state) removePairsForSA(sa SourceAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := sa.key()
	for pk, p := range s.pairs {
		if p.SA.key() == k {
			delete(s.pairs, pk)
		}
	}
}

// addDA is idempotent and never overwrites an existing DA with a
// lower-priority role (probe-target/local-gateway outrank user).
func (s *state) addDA(da DestinationAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := da.key()
	if existing, ok := s.das[k]; ok {
		if existing.Role <= da.Role {
			return
		}
	}
	s.das[k] = da
}

// touchDA updates LastUsed for da if present; it is a no-op
// otherwise.
func (s *state) touchDA(k daKey, when time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if da, ok := s.das[k]; ok {
		da.LastUsed = when
		s.das[k] = da
	}
}

func (s *state) lookupDA(k daKey) (DestinationAddress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	da, ok := s.das[k]
	return da, ok
}

// pairsForDA returns every confirmed pair whose DA matches k.
func (s *state) pairsForDA(k daKey) []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Pair
	for _, p := range s.pairs {
		if p.DA.key() == k {
			out = append(out, p)
		}
	}
	return out
}

// sourcesByScope returns every current SA whose scope is c (and,
// when zone != "", whose zone matches).
func (s *state) sourcesByScope(c ScopeClass, zone string) []SourceAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SourceAddress
	for _, sa := range s.sas {
		if sa.Scope != c {
			continue
		}
		if zone != "" && sa.ZoneID != zone {
			continue
		}
		out = append(out, sa)
	}
	return out
}

// gcUserDAs removes user-role DAs idle past maxAge, always
// preserving at least keepFloor of the most-recently-used entries
// (spec §4.4 gc_user_das), then trims any remaining excess beyond
// maxUser oldest-first (spec §5 "the DA table is bounded by a soft
// cap ... enforced by the monitor's GC"), independent of age.
func (s *state) gcUserDAs(maxAge time.Duration, keepFloor, maxUser int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var userKeys []daKey
	for k, da := range s.das {
		if da.Role == RoleUser {
			userKeys = append(userKeys, k)
		}
	}
	if len(userKeys) <= keepFloor {
		return
	}
	sortDAKeysByLastUsedDesc(userKeys, s.das)

	cutoff := time.Now().Add(-maxAge)
	for i, k := range userKeys {
		if i < keepFloor {
			continue
		}
		if s.das[k].LastUsed.Before(cutoff) {
			delete(s.das, k)
		}
	}

	if maxUser <= 0 {
		return
	}
	var survivors []daKey
	for _, k := range userKeys {
		if _, ok := s.das[k]; ok {
			survivors = append(survivors, k)
		}
	}
	for _, k := range survivors[min(len(survivors), maxUser):] {
		delete(s.das, k)
	}
}

func sortDAKeysByLastUsedDesc(keys []daKey, das map[daKey]DestinationAddress) {
	// insertion sort: the soft cap (spec default 256) keeps this
	// cheap on every monitor cycle.
	for i := 1; i < len(keys); i++ {
		j := i
		for j > 0 && das[keys[j-1]].LastUsed.Before(das[keys[j]].LastUsed) {
			keys[j-1], keys[j] = keys[j], keys[j-1]
			j--
		}
	}
}

// classifySuccess updates connectivity flags per the table in spec
// §4.4. Flags are monotonic-to-true: probe failures never clear
// them; only an inventory change that removes the justifying SA
// class can (see recomputeFlags).
func (s *state) classifySuccess(sa SourceAddress, da DestinationAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case sa.Scope == ScopeULA && da.Scope == ScopeGUA && isOffSite(&da):
		s.flags.NPTv6 = true
	case sa.Scope == ScopeULA && da.Scope == ScopeULA:
		s.flags.ULAOk = true
	case sa.Scope == ScopeLLA && da.Scope == ScopeLLA:
		s.flags.LLAOk = true
	}
	if sa.Scope == ScopeGUA && (da.Family == IPv6) {
		s.flags.GUAOk = true
	}
	if sa.Family == IPv4 && da.Family == IPv4 {
		s.flags.IPv4Ok = true
	}
	if sa.Scope == ScopeRFC1918 && da.Scope == ScopeV4Global {
		s.flags.NAT44 = true
	}
}

// markTried records that a probe was attempted for a (sa, da) scope
// combination relevant to one-shot NPTv6/NAT44 inference, regardless
// of outcome (spec §4.4 "bookkeeping booleans ... for one-shot
// inference").
func (s *state) markTried(sa SourceAddress, da DestinationAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sa.Scope == ScopeULA && da.Scope == ScopeGUA {
		s.flags.NPTv6Tried = true
	}
	if sa.Scope == ScopeRFC1918 && da.Scope == ScopeV4Global {
		s.flags.NAT44Tried = true
	}
}

func (s *state) setULAPresent(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.ULAPresent = v
}

func (s *state) setGateways(gw6, gw4 string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Gateway6 = gw6
	s.flags.Gateway4 = gw4
}

// recomputeFlags clears flags no remaining pair justifies,
// called after an inventory change removes an SA class (spec §4.4
// "Flags never auto-clear on probe failure ... cheap recomputation
// on inventory change").
func (s *state) recomputeFlags() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f Flags
	f.Gateway6, f.Gateway4 = s.flags.Gateway6, s.flags.Gateway4
	f.ULAPresent = s.flags.ULAPresent
	f.NPTv6Tried, f.NAT44Tried = s.flags.NPTv6Tried, s.flags.NAT44Tried

	for _, p := range s.pairs {
		switch {
		case p.SA.Scope == ScopeULA && p.DA.Scope == ScopeGUA:
			f.NPTv6 = true
		case p.SA.Scope == ScopeULA && p.DA.Scope == ScopeULA:
			f.ULAOk = true
		case p.SA.Scope == ScopeLLA && p.DA.Scope == ScopeLLA:
			f.LLAOk = true
		}
		if p.SA.Scope == ScopeGUA && p.DA.Family == IPv6 {
			f.GUAOk = true
		}
		if p.SA.Family == IPv4 && p.DA.Family == IPv4 {
			f.IPv4Ok = true
		}
		if p.SA.Scope == ScopeRFC1918 && p.DA.Scope == ScopeV4Global {
			f.NAT44 = true
		}
	}
	// NPTv6/NAT44 alone carry "at least one confirmed pair ... exists
	// or existed" (spec §3 invariants): once set, an inventory
	// change must not un-set them just because the evidencing pair
	// was removed in the same cascade. The other four flags have no
	// such invariant, so they do recompute down to false when no
	// remaining pair justifies them, per §4.4.
	if s.flags.NPTv6 {
		f.NPTv6 = true
	}
	if s.flags.NAT44 {
		f.NAT44 = true
	}
	s.flags = f
}

// snapshotStatus returns a copy of the current flags.
func (s *state) snapshotStatus() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// snapshotPairs returns a copy of every confirmed pair, an additive
// introspection hook beyond spec §6's status() (see SPEC_FULL.md
// SUPPLEMENTED FEATURES).
func (s *state) snapshotPairs() []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, p)
	}
	return out
}
