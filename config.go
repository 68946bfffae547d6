// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"net"
	"time"
)

// A ProbeTarget is a candidate immortal probe-target pair offered to
// Init; one IPv6 and one IPv4 candidate are chosen at random from the
// configured pool.
type ProbeTarget struct {
	IPv6 net.IP
	IPv4 net.IP
}

// A Config holds the recognized library options (spec §6
// Configuration). The zero Config is not usable; call
// DefaultConfig and override individual fields.
type Config struct {
	// PollPeriod is the poll worker's sweep cadence.
	PollPeriod time.Duration
	// ProbeTimeout is the per-probe wall-clock deadline.
	ProbeTimeout time.Duration
	// ProbePort is the transport port used for TCP-connect probes.
	ProbePort int
	// DAMaxUser is the soft cap on user-role destination addresses.
	DAMaxUser int
	// DAMaxAge is the garbage-collection threshold for idle
	// user-role destinations.
	DAMaxAge time.Duration
	// DAKeepFloor is the minimum number of most-recently-used
	// user-role destinations gc_user_das preserves regardless of age.
	DAKeepFloor int
	// ProbeTargetPool is the candidate pool Init chooses its two
	// immortal probe targets from.
	ProbeTargetPool []ProbeTarget
	// Printing mirrors the printing flag in spec §6. No code reads
	// it: Init and GetAddrPairs produce no status or progress output
	// whatever its value.
	Printing bool
}

// DefaultConfig returns the configuration spec §6 documents as the
// recognized defaults.
func DefaultConfig() Config {
	return Config{
		PollPeriod:   10 * time.Second,
		ProbeTimeout: time.Second,
		ProbePort:    80,
		DAMaxUser:    256,
		DAMaxAge:     10 * time.Minute,
		DAKeepFloor:  8,
		ProbeTargetPool: []ProbeTarget{
			{IPv6: net.ParseIP("2001:4860:4860::8888"), IPv4: net.ParseIP("8.8.8.8")},
			{IPv6: net.ParseIP("2606:4700:4700::1111"), IPv4: net.ParseIP("1.1.1.1")},
		},
	}
}
