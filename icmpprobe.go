// Copyright 2014 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// icmpProber is a Prober grounded on the teacher's
// Loopback.Run/roundTrip (loopback.go): it opens a single ICMP echo
// round trip per probe rather than dialing a transport connection,
// which makes it suitable for probe-target and local-gateway DAs
// that have no meaningful port (spec §9 "Probe diversity": the
// engine's operation is defined generically over (transport, port)
// so alternatives can be plugged in without changing oracle
// contracts); roleDispatchProber (probe.go) routes those DAs here
// and everything else to tcpProber. port is ignored.
type icmpProber struct {
	id int
}

func newICMPProber() *icmpProber {
	return &icmpProber{id: os.Getpid() & 0xffff}
}

func (p *icmpProber) Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult {
	network, typ := "udp4", icmp.Type(ipv4.ICMPTypeEcho)
	listenAddr := sa.IP.String()
	if da.Family == IPv6 {
		network, typ = "udp6", ipv6.ICMPTypeEchoRequest
	}

	c, err := icmp.ListenPacket(network, listenAddr)
	if err != nil {
		return ProbeResult{Success: false, Reason: err}
	}
	defer c.Close()

	seq := int(time.Now().UnixNano()) & 0xffff
	wm := icmp.Message{
		Type: typ,
		Code: 0,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: []byte("connoracle-probe")},
	}
	wb, err := wm.Marshal(nil)
	if err != nil {
		return ProbeResult{Success: false, Reason: err}
	}

	var dst net.Addr = &net.UDPAddr{IP: da.IP, Zone: da.ZoneID}

	begin := time.Now()
	if _, err := c.WriteTo(wb, dst); err != nil {
		return ProbeResult{Success: false, Reason: err}
	}
	if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return ProbeResult{Success: false, Reason: err}
	}

	proto := ianaProtocolICMP
	if da.Family == IPv6 {
		proto = ianaProtocolIPv6ICMP
	}
	rb := make([]byte, 512)
	for {
		select {
		case <-ctx.Done():
			return ProbeResult{Success: false, Reason: ctx.Err()}
		default:
		}
		n, peer, err := c.ReadFrom(rb)
		if err != nil {
			return ProbeResult{Success: false, Reason: err}
		}
		rm, err := icmp.ParseMessage(proto, rb[:n])
		if err != nil {
			continue
		}
		echo, ok := rm.Body.(*icmp.Echo)
		if !ok || echo.ID != p.id || echo.Seq != seq {
			continue
		}
		if !reachable(dst, peer) {
			continue
		}
		switch rm.Type {
		case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
			return ProbeResult{Success: true, Latency: time.Since(begin)}
		default:
			return ProbeResult{Success: false, Reason: fmt.Errorf("unexpected icmp type %v", rm.Type)}
		}
	}
}

const (
	ianaProtocolICMP     = 1
	ianaProtocolIPv6ICMP = 58
)
