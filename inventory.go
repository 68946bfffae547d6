// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"net"
	"sync"
)

// A HostInventory is a snapshot of the host's usable source
// addresses and default gateways, refreshable on demand from OS
// queries. Interface/address/gateway enumeration itself is an
// external collaborator (spec §1 Out of scope); HostInventory wraps
// whatever that collaborator returns into the oracle's data model.
type HostInventory struct {
	mu      sync.RWMutex
	sources []SourceAddress
	gw6     net.IP
	gw4     net.IP
}

// NewHostInventory returns an empty inventory; call Refresh before
// use.
func NewHostInventory() *HostInventory {
	return &HostInventory{}
}

// Refresh replaces the current inventory with a fresh snapshot. It
// never mutates the previous snapshot in place, so a concurrent
// Sources()/Gateways() call observes either the old or new snapshot,
// never a mix.
func (h *HostInventory) Refresh() error {
	ift, err := net.Interfaces()
	if err != nil {
		return &InventoryUnavailableError{Err: err}
	}

	var next []SourceAddress
	for _, ifi := range ift {
		if ifi.Flags&net.FlagUp == 0 {
			continue
		}
		ifat, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, ifa := range ifat {
			ipn, ok := ifa.(*net.IPNet)
			if !ok {
				continue
			}
			if !usableSource(ipn.IP) {
				continue
			}
			sa := SourceAddress{IP: ipn.IP, Scope: classify(ipn.IP)}
			if sa.Scope == ScopeLLA {
				sa.ZoneID = ifi.Name
			}
			if ipn.IP.To4() != nil {
				sa.Family = IPv4
			} else {
				sa.Family = IPv6
			}
			next = append(next, sa)
		}
	}

	gw6, gw4, err := defaultGateways()
	if err != nil {
		return &InventoryUnavailableError{Err: err}
	}

	h.mu.Lock()
	h.sources = next
	h.gw6, h.gw4 = gw6, gw4
	h.mu.Unlock()
	return nil
}

// usableSource reports whether ip is eligible to be a SourceAddress:
// not loopback, not unspecified, not multicast. Go's net package
// does not expose interface-address tentative/deprecated status
// (platform-specific, e.g. Linux IFA_F_TENTATIVE/IFA_F_DEPRECATED
// netlink flags), so that part of the "usable" definition in spec
// §4.2 cannot be checked portably here; see DESIGN.md.
func usableSource(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsMulticast() {
		return false
	}
	return true
}

// Sources returns the current source-address snapshot.
func (h *HostInventory) Sources() []SourceAddress {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]SourceAddress, len(h.sources))
	copy(out, h.sources)
	return out
}

// Gateways returns the current default gateways, nil when none is
// configured for that family.
func (h *HostInventory) Gateways() (gw6, gw4 net.IP) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gw6, h.gw4
}

// diffSources reports SAs present in next but not prev (added) and
// SAs present in prev but not next (removed), keyed the same way the
// oracle's pair table keys SAs.
func diffSources(prev, next []SourceAddress) (added, removed []SourceAddress) {
	prevSet := make(map[saKey]struct{}, len(prev))
	for i := range prev {
		prevSet[prev[i].key()] = struct{}{}
	}
	nextSet := make(map[saKey]struct{}, len(next))
	for i := range next {
		nextSet[next[i].key()] = struct{}{}
	}
	for i := range next {
		if _, ok := prevSet[next[i].key()]; !ok {
			added = append(added, next[i])
		}
	}
	for i := range prev {
		if _, ok := nextSet[prev[i].key()]; !ok {
			removed = append(removed, prev[i])
		}
	}
	return added, removed
}
