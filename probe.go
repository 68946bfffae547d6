// Copyright 2014 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"net"
	"strconv"
	"time"
)

// A ProbeResult is the outcome of a single probe attempt.
type ProbeResult struct {
	Success bool
	Latency time.Duration
	Reason  error // set when Success is false
}

// A Prober opens a transport-level connection from sa to da:port,
// timing it from immediately-before-initiate to connected, then
// tears it down. It is stateless and safe for concurrent use by
// independent callers; see spec §4.3. A failure to bind sa, a
// refused connection, a timeout or an unreachable signal all map to
// a non-Success ProbeResult.
type Prober interface {
	Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult
}

// tcpProber is a TCP SYN/SYN-ACK connect from the exact source
// address, timed end to end. Grounded directly on spec §4.3's
// literal text; used by roleDispatchProber for ordinary user DAs.
// Probe-target and local-gateway DAs have no meaningful port, so
// they go through icmpProber (icmpprobe.go) instead.
type tcpProber struct {
	dialer net.Dialer
}

func newTCPProber() *tcpProber {
	return &tcpProber{}
}

func (p *tcpProber) Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult {
	d := p.dialer
	d.LocalAddr = localAddr(sa)
	d.Timeout = timeout

	network := "tcp4"
	if da.Family == IPv6 {
		network = "tcp6"
	}

	host := da.IP.String()
	if da.ZoneID != "" {
		host += "%" + da.ZoneID
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	begin := time.Now()
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return ProbeResult{Success: false, Reason: err}
	}
	latency := time.Since(begin)
	conn.Close()
	return ProbeResult{Success: true, Latency: latency}
}

func localAddr(sa *SourceAddress) net.Addr {
	if sa.Family == IPv4 {
		return &net.TCPAddr{IP: sa.IP}
	}
	return &net.TCPAddr{IP: sa.IP, Zone: sa.ZoneID}
}

// roleDispatchProber picks between the ICMP and TCP-connect probers
// by DA role: probe-target and local-gateway DAs have no meaningful
// port to dial (spec §4.3 "probe diversity"), so they get the ICMP
// echo prober in icmpprobe.go; ordinary user DAs get the TCP-connect
// prober spec §4.3 describes literally.
type roleDispatchProber struct {
	icmp Prober
	tcp  Prober
}

func newRoleDispatchProber() *roleDispatchProber {
	return &roleDispatchProber{icmp: newICMPProber(), tcp: newTCPProber()}
}

func (p *roleDispatchProber) Probe(ctx context.Context, sa *SourceAddress, da *DestinationAddress, port int, timeout time.Duration) ProbeResult {
	switch da.Role {
	case RoleProbeTarget, RoleLocalGateway:
		return p.icmp.Probe(ctx, sa, da, port, timeout)
	default:
		return p.tcp.Probe(ctx, sa, da, port, timeout)
	}
}

