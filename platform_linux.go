// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"bufio"
	"encoding/hex"
	"net"
	"os"
	"strconv"
	"strings"
)

// defaultGateways discovers the IPv4 and IPv6 default gateways by
// parsing the kernel's route tables under /proc, the portable,
// dependency-light equivalent of a netlink route dump (see
// SPEC_FULL.md DOMAIN STACK and DESIGN.md for why vishvananda/netlink
// itself is not imported). A missing /proc mount (non-Linux, or a
// sandboxed container without it) is not an error: it simply means
// no gateway is known, the same as a host with no default route.
func defaultGateways() (gw6, gw4 net.IP, err error) {
	gw4 = gatewayFromRouteTable("/proc/net/route", parseIPv4RouteLine)
	gw6 = gatewayFromRouteTable("/proc/net/ipv6_route", parseIPv6RouteLine)
	return gw6, gw4, nil
}

func gatewayFromRouteTable(path string, parse func(fields []string) net.IP) net.IP {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue // header line
		}
		fields := strings.Fields(sc.Text())
		if gw := parse(fields); gw != nil {
			return gw
		}
	}
	return nil
}

// parseIPv4RouteLine parses a /proc/net/route data line:
// Iface Destination Gateway Flags RefCnt Use Metric Mask MTU Window IRTT
func parseIPv4RouteLine(fields []string) net.IP {
	if len(fields) < 8 {
		return nil
	}
	if fields[1] != "00000000" { // destination must be the default route
		return nil
	}
	gw, err := hex.DecodeString(fields[2])
	if err != nil || len(gw) != 4 {
		return nil
	}
	// /proc/net/route stores the address little-endian.
	ip := net.IPv4(gw[3], gw[2], gw[1], gw[0])
	if ip.IsUnspecified() {
		return nil
	}
	return ip
}

// parseIPv6RouteLine parses a /proc/net/ipv6_route data line:
// dest destlen src srclen nexthop metric refcnt use flags devname
func parseIPv6RouteLine(fields []string) net.IP {
	if len(fields) < 10 {
		return nil
	}
	destLen, err := strconv.ParseInt(fields[1], 16, 64)
	if err != nil || destLen != 0 {
		return nil // default route has a zero-length destination prefix
	}
	nh, err := hex.DecodeString(fields[4])
	if err != nil || len(nh) != 16 {
		return nil
	}
	ip := net.IP(nh)
	if ip.IsUnspecified() {
		return nil
	}
	return ip
}
