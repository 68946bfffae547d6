// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"net"
	"testing"
)

func TestDiffSources(t *testing.T) {
	a := SourceAddress{IP: net.ParseIP("203.0.113.1")}
	b := SourceAddress{IP: net.ParseIP("203.0.113.2")}
	c := SourceAddress{IP: net.ParseIP("203.0.113.3")}

	prev := []SourceAddress{a, b}
	next := []SourceAddress{b, c}

	added, removed := diffSources(prev, next)
	if len(added) != 1 || added[0].key() != c.key() {
		t.Errorf("added = %v, want [c]", added)
	}
	if len(removed) != 1 || removed[0].key() != a.key() {
		t.Errorf("removed = %v, want [a]", removed)
	}
}

func TestUsableSource(t *testing.T) {
	for _, tt := range []struct {
		addr string
		want bool
	}{
		{"203.0.113.1", true},
		{"127.0.0.1", false},
		{"0.0.0.0", false},
		{"224.0.0.1", false},
		{"::1", false},
		{"2001:db8::1", true},
	} {
		ip := net.ParseIP(tt.addr)
		if got := usableSource(ip); got != tt.want {
			t.Errorf("usableSource(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestHostInventoryRefresh(t *testing.T) {
	inv := NewHostInventory()
	if err := inv.Refresh(); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	// Every host has at least a loopback interface; Sources() must
	// never include it (spec §4.2 "usable" excludes loopback).
	for _, sa := range inv.Sources() {
		if sa.IP.IsLoopback() {
			t.Errorf("Sources() included loopback address %v", sa.IP)
		}
	}
}
