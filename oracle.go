// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"math/rand"
	"net"
	"sync"
	"time"
)

// A Resolver looks up the destination addresses for a name. DNS name
// resolution is an external collaborator (spec §1 Out of scope);
// Resolver is the seam the oracle calls through, with a net.Resolver
// backed default.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type netResolver struct{}

func (netResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return net.DefaultResolver.LookupIPAddr(ctx, host)
}

// An Oracle is a single, explicitly constructed connectivity-oracle
// handle (spec §9 "Global mutable state": re-architected as a value
// with explicit construction and shutdown, exposed through a handle
// rather than ambient package state).
type Oracle struct {
	cfg      Config
	inv      *HostInventory
	st       *state
	prober   Prober
	resolver Resolver

	cancel         chan struct{}
	wg             sync.WaitGroup
	firstSweepDone chan struct{}

	initOnce sync.Once
	initErr  error
	started  bool
	mu       sync.Mutex
}

// An Option configures an Oracle at construction time.
type Option func(*Oracle)

// WithProber overrides the default Prober (role-dispatched between
// icmpProber and tcpProber; see probe.go's roleDispatchProber),
// primarily for tests.
func WithProber(p Prober) Option {
	return func(o *Oracle) { o.prober = p }
}

// WithResolver overrides the default net.Resolver-backed DNS lookup,
// primarily for tests.
func WithResolver(r Resolver) Option {
	return func(o *Oracle) { o.resolver = r }
}

// New constructs an Oracle. Call Init before querying it.
func New(cfg Config, opts ...Option) *Oracle {
	o := &Oracle{
		cfg:            cfg,
		inv:            NewHostInventory(),
		st:             newState(),
		prober:         newRoleDispatchProber(),
		resolver:       netResolver{},
		cancel:         make(chan struct{}),
		firstSweepDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init is idempotent: the first call discovers the initial SA
// snapshot and default gateways, installs two immortal probe-target
// DAs chosen at random from the configured pool plus the discovered
// gateways, starts both workers, and blocks until the first poll
// sweep completes. Subsequent calls are no-ops (spec §4.7).
func (o *Oracle) Init() error {
	o.initOnce.Do(func() {
		o.initErr = o.init()
	})
	return o.initErr
}

func (o *Oracle) init() error {
	if err := o.inv.Refresh(); err != nil {
		return err
	}
	o.st.setSources(o.inv.Sources())

	gw6, gw4 := o.inv.Gateways()
	o.st.setGateways(ipString(gw6), ipString(gw4))
	if gw6 != nil {
		o.st.addDA(DestinationAddress{Family: IPv6, IP: gw6, Scope: classify(gw6), Role: RoleLocalGateway, FirstSeen: time.Now()})
	}
	if gw4 != nil {
		o.st.addDA(DestinationAddress{Family: IPv4, IP: gw4, Scope: classify(gw4), Role: RoleLocalGateway, FirstSeen: time.Now()})
	}

	ulaPresent := false
	for _, sa := range o.inv.Sources() {
		if sa.Scope == ScopeULA {
			ulaPresent = true
			break
		}
	}
	o.st.setULAPresent(ulaPresent)

	if len(o.cfg.ProbeTargetPool) > 0 {
		pt := o.cfg.ProbeTargetPool[rand.Intn(len(o.cfg.ProbeTargetPool))]
		if pt.IPv6 != nil {
			o.st.addDA(DestinationAddress{Family: IPv6, IP: pt.IPv6, Scope: classify(pt.IPv6), Role: RoleProbeTarget, FirstSeen: time.Now()})
		}
		if pt.IPv4 != nil {
			o.st.addDA(DestinationAddress{Family: IPv4, IP: pt.IPv4, Scope: classify(pt.IPv4), Role: RoleProbeTarget, FirstSeen: time.Now()})
		}
	}

	o.mu.Lock()
	o.started = true
	o.mu.Unlock()

	o.wg.Add(2)
	go o.pollLoop()
	go o.monitorLoop()

	<-o.firstSweepDone
	return nil
}

// Shutdown signals both workers and joins them. A probe in flight is
// allowed to finish (spec §5 Cancellation); Shutdown blocks until
// that happens.
func (o *Oracle) Shutdown() {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return
	}
	close(o.cancel)
	o.wg.Wait()
}

// Status returns the current connectivity flags and gateway
// addresses (spec §6 status()).
func (o *Oracle) Status() Flags {
	return o.st.snapshotStatus()
}

// Snapshot returns every currently confirmed pair, a supplemented
// introspection hook beyond spec §6 (see SPEC_FULL.md).
func (o *Oracle) Snapshot() []Pair {
	return o.st.snapshotPairs()
}
