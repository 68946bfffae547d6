// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package oracle

import "net"

// defaultGateways has no portable non-Linux implementation here
// (route-table introspection is OS-specific and, per spec §1, an
// external collaborator this design does not own). Returning no
// gateways is a safe default: the oracle still probes and learns
// connectivity without ever seeing a configured gateway.
func defaultGateways() (gw6, gw4 net.IP, err error) {
	return nil, nil, nil
}
