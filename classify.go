// Copyright 2014 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"net"

	"github.com/mikioh/ipaddr"
)

// A Family is an address family.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv4 {
		return "ipv4"
	}
	return "ipv6"
}

// A ScopeClass is the address scope assigned by classify. It is a
// closed enumeration: every syntactically valid address maps to
// exactly one class.
type ScopeClass int

const (
	ScopeUnknown ScopeClass = iota
	ScopeGUA                // IPv6 global unicast, 2000::/3 minus ULA
	ScopeULA                // IPv6 unique local, fc00::/7
	ScopeLLA                // IPv6 link-local, fe80::/10
	ScopeV6Loopback
	ScopeV6Multicast
	ScopeUnspecified
	ScopeV4Global
	ScopeRFC1918
	ScopeV4LinkLocal
	ScopeV4Loopback
	ScopeV4Multicast
)

func (c ScopeClass) String() string {
	switch c {
	case ScopeGUA:
		return "GUA"
	case ScopeULA:
		return "ULA"
	case ScopeLLA:
		return "LLA"
	case ScopeV6Loopback:
		return "v6-loopback"
	case ScopeV6Multicast:
		return "v6-mcast"
	case ScopeUnspecified:
		return "unspecified"
	case ScopeV4Global:
		return "v4-global"
	case ScopeRFC1918:
		return "RFC1918"
	case ScopeV4LinkLocal:
		return "v4-LL"
	case ScopeV4Loopback:
		return "v4-loopback"
	case ScopeV4Multicast:
		return "v4-mcast"
	default:
		return "unknown"
	}
}

// prefix tables, grounded on cmd/ipoam/helper.go's use of
// ipaddr.Prefix/ipaddr.NewPrefix for prefix containment tests.
var (
	guaPrefix  = mustPrefix("2000::/3")
	ulaPrefix  = mustPrefix("fc00::/7")
	llaPrefix  = mustPrefix("fe80::/10")
	v6mcast    = mustPrefix("ff00::/8")
	rfc1918s   = []*ipaddr.Prefix{mustPrefix("10.0.0.0/8"), mustPrefix("172.16.0.0/12"), mustPrefix("192.168.0.0/16")}
	v4llPrefix = mustPrefix("169.254.0.0/16")
	v4mcast    = mustPrefix("224.0.0.0/4")
)

func mustPrefix(s string) *ipaddr.Prefix {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return ipaddr.NewPrefix(n)
}

// classify assigns addr its ScopeClass. It is a pure, total function
// on syntactically valid addresses: every branch of the v4/v6
// enumeration is covered so no address falls through unclassified.
func classify(addr net.IP) ScopeClass {
	if v4 := addr.To4(); v4 != nil && addr.To16() != nil && isV4Mapped(addr) {
		return classifyV4(v4)
	}
	if v4 := addr.To4(); v4 != nil {
		return classifyV4(v4)
	}
	return classifyV6(addr)
}

func isV4Mapped(addr net.IP) bool {
	// net.IP.To4 already folds v4-in-v6 down to 4 bytes; this guard
	// only exists to document the fold rather than change behavior.
	return addr.To4() != nil
}

func classifyV4(ip net.IP) ScopeClass {
	switch {
	case ip.IsLoopback():
		return ScopeV4Loopback
	case ip.IsUnspecified():
		return ScopeUnspecified
	case ip.IsMulticast() || v4mcast.Contains(ip):
		return ScopeV4Multicast
	case v4llPrefix.Contains(ip):
		return ScopeV4LinkLocal
	default:
		for _, p := range rfc1918s {
			if p.Contains(ip) {
				return ScopeRFC1918
			}
		}
		return ScopeV4Global
	}
}

func classifyV6(ip net.IP) ScopeClass {
	switch {
	case ip.IsLoopback():
		return ScopeV6Loopback
	case ip.IsUnspecified():
		return ScopeUnspecified
	case ip.IsMulticast() || v6mcast.Contains(ip):
		return ScopeV6Multicast
	case llaPrefix.Contains(ip):
		return ScopeLLA
	case ulaPrefix.Contains(ip):
		return ScopeULA
	case guaPrefix.Contains(ip):
		return ScopeGUA
	default:
		// Outside the assigned global unicast range (documented
		// reserved space); treated as global unicast for pairing
		// purposes, matching RFC 6724's liberal default.
		return ScopeGUA
	}
}

// intrinsically_valid rejects address-pair combinations that could
// never be dialed, independent of any measured evidence.
func intrinsicallyValid(sa *SourceAddress, da *DestinationAddress) bool {
	if sa.Family != da.Family {
		return false
	}
	if sa.Scope == ScopeLLA || da.Scope == ScopeLLA {
		if sa.Scope != ScopeLLA || da.Scope != ScopeLLA {
			return false
		}
		if da.ZoneID != "" && sa.ZoneID != da.ZoneID {
			return false
		}
	}
	switch sa.Scope {
	case ScopeV6Loopback, ScopeV4Loopback, ScopeV6Multicast, ScopeV4Multicast, ScopeUnspecified:
		return false
	}
	switch da.Scope {
	case ScopeV6Loopback, ScopeV4Loopback, ScopeV6Multicast, ScopeV4Multicast, ScopeUnspecified:
		return false
	}
	if sa.Scope == ScopeV4LinkLocal && da.Scope != ScopeV4LinkLocal {
		return false
	}
	return true
}

// is_off_site currently treats every GUA and every v4-global as
// off-site. Acknowledged heuristic: a longest-prefix match against
// the host's own assigned prefixes is the natural upgrade.
func isOffSite(da *DestinationAddress) bool {
	return da.Scope == ScopeGUA || da.Scope == ScopeV4Global
}
