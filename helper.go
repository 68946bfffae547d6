// Copyright 2014 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import "net"

// reachable reports whether a reply purportedly from fm could
// plausibly be a response to a probe sent to tgt. Adapted from the
// teacher's cmd/ipoam/helper.go reachable, trimmed to the two
// net.Addr shapes the ICMP prober (icmpprobe.go) actually produces.
func reachable(tgt, fm net.Addr) bool {
	var ip net.IP
	switch tgt := tgt.(type) {
	case *net.UDPAddr:
		ip = tgt.IP
	case *net.IPAddr:
		ip = tgt.IP
	default:
		return false
	}
	if ip.IsMulticast() {
		return true
	}
	switch fm := fm.(type) {
	case *net.UDPAddr:
		return ip.Equal(fm.IP)
	case *net.IPAddr:
		return ip.Equal(fm.IP)
	default:
		return false
	}
}
