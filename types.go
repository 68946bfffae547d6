// Copyright 2014 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"net"
	"time"
)

// A Role classifies why a DestinationAddress exists in the oracle.
type Role int

const (
	// RoleProbeTarget marks an immortal DA used by the poll worker
	// to establish baseline reachability in a family.
	RoleProbeTarget Role = iota
	// RoleLocalGateway marks an immortal DA discovered as a default
	// gateway.
	RoleLocalGateway
	// RoleUser marks a DA added lazily by a query; garbage-collectable.
	RoleUser
)

func (r Role) String() string {
	switch r {
	case RoleProbeTarget:
		return "probe-target"
	case RoleLocalGateway:
		return "local-gateway"
	default:
		return "user"
	}
}

// A SourceAddress is a local address usable to bind an outgoing
// connection, owned by the host inventory.
type SourceAddress struct {
	Family Family
	IP     net.IP
	Scope  ScopeClass
	ZoneID string // IPv6 LLA only
}

func (sa *SourceAddress) key() saKey {
	return saKey{addr: sa.IP.String(), zone: sa.ZoneID}
}

type saKey struct {
	addr string
	zone string
}

// A DestinationAddress is a remote address the oracle has decided to
// track, either permanently (probe target, gateway) or transiently
// (user-referenced).
type DestinationAddress struct {
	Family    Family
	IP        net.IP
	Scope     ScopeClass
	Role      Role
	ZoneID    string
	FirstSeen time.Time
	LastUsed  time.Time
}

func (da *DestinationAddress) key() daKey {
	return daKey{family: da.Family, addr: da.IP.String(), zone: da.ZoneID}
}

type daKey struct {
	family Family
	addr   string
	zone   string
}

// A Pair is a confirmed-reachable (SA, DA) combination with its
// rolling-average latency. It exists only while confirmed reachable;
// see state.removePair.
type Pair struct {
	SA            SourceAddress
	DA            DestinationAddress
	AvgLatencyMS  float64
	SampleCount   int
	LastSuccessAt time.Time
}

type pairKey struct {
	sa saKey
	da daKey
}

func (p *Pair) key() pairKey {
	return pairKey{sa: p.SA.key(), da: p.DA.key()}
}

// maxRollingSamples caps the exponential rolling-average weight at
// 1/16 so latency stays responsive to path changes (see spec §4.4,
// §9 "Rolling latency").
const maxRollingSamples = 16
