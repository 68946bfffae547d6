// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import "net"

// A SockAddr is a family-tagged socket address, consumable by the
// host's native bind/connect primitives without further
// transformation (spec §6 "Socket-address shapes").
type SockAddr interface {
	sockAddr()
}

// An IPv4SockAddr carries (address, port).
type IPv4SockAddr struct {
	IP   net.IP
	Port int
}

func (IPv4SockAddr) sockAddr() {}

// An IPv6SockAddr carries (address, port, flow-info, scope-id).
// FlowInfo is always zero: this design never sets it (spec §6).
type IPv6SockAddr struct {
	IP       net.IP
	Port     int
	FlowInfo uint32
	ScopeID  string
}

func (IPv6SockAddr) sockAddr() {}

// An AddrPair is one ranked (family, source, destination) result
// from GetAddrPairs.
type AddrPair struct {
	Family  Family
	Src     SockAddr
	Dst     SockAddr
	Latency float64 // milliseconds; measured when from a confirmed Pair, synthetic otherwise
}

func sockAddrFor(family Family, ip net.IP, zone string, port int) SockAddr {
	if family == IPv4 {
		return IPv4SockAddr{IP: ip, Port: port}
	}
	return IPv6SockAddr{IP: ip, Port: port, ScopeID: zone}
}
