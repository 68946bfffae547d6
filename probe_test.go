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

func TestTCPProberUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("to avoid external network")
	}

	p := newTCPProber()
	sa := &SourceAddress{Family: IPv4, IP: net.IPv4zero}
	da := &DestinationAddress{Family: IPv4, IP: net.ParseIP("192.0.2.1")} // TEST-NET-1, never routed

	result := p.Probe(context.Background(), sa, da, 80, 200*time.Millisecond)
	if result.Success {
		t.Error("Probe succeeded against a TEST-NET-1 address, want failure")
	}
	if result.Reason == nil {
		t.Error("Reason is nil on failure")
	}
}

func TestTCPProberLoopback(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	p := newTCPProber()
	sa := &SourceAddress{Family: IPv4, IP: net.IPv4zero}
	da := &DestinationAddress{Family: IPv4, IP: addr.IP}

	result := p.Probe(context.Background(), sa, da, addr.Port, time.Second)
	if !result.Success {
		t.Fatalf("Probe failed against local listener: %v", result.Reason)
	}
	if result.Latency <= 0 {
		t.Error("Latency should be positive for a successful probe")
	}
}

type stubProber struct {
	called bool
}

func (p *stubProber) Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult {
	p.called = true
	return ProbeResult{Success: true, Latency: time.Millisecond}
}

func TestRoleDispatchProber(t *testing.T) {
	sa := &SourceAddress{Family: IPv4, IP: net.ParseIP("192.168.1.10")}

	for _, tt := range []struct {
		role     Role
		wantICMP bool
	}{
		{RoleProbeTarget, true},
		{RoleLocalGateway, true},
		{RoleUser, false},
	} {
		icmp, tcp := &stubProber{}, &stubProber{}
		p := &roleDispatchProber{icmp: icmp, tcp: tcp}
		da := &DestinationAddress{Family: IPv4, IP: net.ParseIP("203.0.113.5"), Role: tt.role}

		p.Probe(context.Background(), sa, da, 80, time.Second)

		if icmp.called != tt.wantICMP {
			t.Errorf("role %v: icmp.called = %v, want %v", tt.role, icmp.called, tt.wantICMP)
		}
		if tcp.called == tt.wantICMP {
			t.Errorf("role %v: tcp.called = %v, want %v", tt.role, tcp.called, !tt.wantICMP)
		}
	}
}
