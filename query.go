// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"
)

// resolveTarget resolves target to a destination-address set,
// preserving DNS's returned family order when target is not a
// literal IP (spec §4.6 step 1).
func (o *Oracle) resolveTarget(ctx context.Context, target string) ([]net.IPAddr, error) {
	host, zone := target, ""
	if i := strings.IndexByte(target, '%'); i >= 0 {
		host, zone = target[:i], target[i+1:]
	}
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip, Zone: zone}}, nil
	}

	addrs, err := o.resolver.LookupIPAddr(ctx, target)
	if err != nil || len(addrs) == 0 {
		return nil, &ResolutionFailedError{Target: target, Err: err}
	}
	return addrs, nil
}

type candidate struct {
	family      Family
	sa          SockAddr
	da          SockAddr
	latencyMS   float64
	isSynthetic bool
	ruleOrder   int
	saAddr      string
}

// GetAddrPairs resolves target and returns an ordered, deduplicated
// sequence of (family, source, destination) socket-address triples
// (spec §4.6). It implicitly calls Init if the oracle has not yet
// been initialized (spec §4.7).
func (o *Oracle) GetAddrPairs(ctx context.Context, target string, port int) ([]AddrPair, error) {
	if err := o.Init(); err != nil {
		return nil, err
	}

	addrs, err := o.resolveTarget(ctx, target)
	if err != nil {
		// ResolutionFailed is not an exception (spec §7): an empty
		// sequence, not a propagated error.
		return nil, nil
	}

	now := time.Now()
	var cands []candidate
	var toTouch []daKey

	for _, a := range addrs {
		family := IPv4
		if a.IP.To4() == nil {
			family = IPv6
		}
		scope := classify(a.IP)
		k := daKey{family: family, addr: a.IP.String(), zone: a.Zone}

		if _, ok := o.st.lookupDA(k); ok {
			toTouch = append(toTouch, k)
			for _, p := range o.st.pairsForDA(k) {
				cands = append(cands, candidate{
					family:    family,
					sa:        sockAddrFor(p.SA.Family, p.SA.IP, p.SA.ZoneID, port),
					da:        sockAddrFor(family, a.IP, a.Zone, port),
					latencyMS: p.AvgLatencyMS,
					saAddr:    p.SA.IP.String(),
				})
			}
			continue
		}

		da := DestinationAddress{Family: family, IP: a.IP, Scope: scope, Role: RoleUser, ZoneID: a.Zone, FirstSeen: now, LastUsed: now}
		o.st.addDA(da)
		toTouch = append(toTouch, k)

		cands = append(cands, o.ruleBasedSuggestions(&da, port)...)
	}

	for _, k := range toTouch {
		o.st.touchDA(k, now)
	}

	dedup := make(map[string]candidate)
	order := make([]string, 0, len(cands))
	for _, c := range cands {
		key := c.saAddr + "|" + sockAddrKey(c.da)
		if _, ok := dedup[key]; !ok {
			order = append(order, key)
		}
		dedup[key] = c
	}
	out := make([]candidate, 0, len(order))
	for _, k := range order {
		out = append(out, dedup[k])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].family != out[j].family {
			return out[i].family == IPv6 // IPv6 before IPv4
		}
		if out[i].latencyMS != out[j].latencyMS {
			return out[i].latencyMS < out[j].latencyMS
		}
		if out[i].isSynthetic != out[j].isSynthetic {
			return !out[i].isSynthetic // measured before synthetic of same value
		}
		return out[i].ruleOrder < out[j].ruleOrder
	})

	result := make([]AddrPair, len(out))
	for i, c := range out {
		result[i] = AddrPair{Family: c.family, Src: c.sa, Dst: c.da, Latency: c.latencyMS}
	}
	return result, nil
}

func sockAddrKey(s SockAddr) string {
	switch a := s.(type) {
	case IPv4SockAddr:
		return a.IP.String()
	case IPv6SockAddr:
		return a.IP.String() + "%" + a.ScopeID
	default:
		return ""
	}
}

// ruleBasedSuggestions implements spec §4.6 step 2's policy table
// for a DA the oracle has not yet probed. Multiple rules may fire;
// callers union and later deduplicate the results.
func (o *Oracle) ruleBasedSuggestions(da *DestinationAddress, port int) []candidate {
	flags := o.st.snapshotStatus()
	var out []candidate

	add := func(sas []SourceAddress, latency float64, ruleOrder int) {
		for _, sa := range sas {
			out = append(out, candidate{
				family:      da.Family,
				sa:          sockAddrFor(sa.Family, sa.IP, sa.ZoneID, port),
				da:          sockAddrFor(da.Family, da.IP, da.ZoneID, port),
				latencyMS:   latency,
				isSynthetic: true,
				ruleOrder:   ruleOrder,
				saAddr:      sa.IP.String(),
			})
		}
	}

	switch da.Family {
	case IPv6:
		if da.Scope == ScopeGUA && flags.GUAOk {
			add(o.st.sourcesByScope(ScopeGUA, ""), 200, 0)
		}
		if da.Scope == ScopeULA {
			add(o.st.sourcesByScope(ScopeULA, ""), 199, 1)
		}
		if da.Scope == ScopeGUA && flags.NPTv6 {
			add(o.st.sourcesByScope(ScopeULA, ""), 201, 2)
		}
		if da.Scope == ScopeLLA && flags.LLAOk {
			add(o.st.sourcesByScope(ScopeLLA, da.ZoneID), 1, 3)
		}
	case IPv4:
		if (da.Scope == ScopeV4Global && flags.NAT44) || da.Scope == ScopeRFC1918 {
			add(o.st.sourcesByScope(ScopeRFC1918, ""), 250, 4)
		}
		if da.Scope == ScopeV4Global && flags.IPv4Ok {
			add(o.st.sourcesByScope(ScopeV4Global, ""), 250, 5)
		}
		if da.Scope == ScopeV4LinkLocal {
			add(o.st.sourcesByScope(ScopeV4LinkLocal, ""), 2, 6)
		}
	}
	return out
}
