// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"net"
	"sort"
	"time"
)

// runPollSweep runs one iteration of the poll worker (spec §4.5): it
// snapshots sources/destinations, probes every intrinsically valid
// pair, and commits the results. It is a method of its own, separate
// from pollLoop, so tests can drive a single, deterministic sweep
// without waiting on the ticker.
func (o *Oracle) runPollSweep(ctx context.Context) {
	sas, das := o.st.snapshotSourcesAndDAs()

	// Deterministic ordering within a sweep, per spec §4.5.
	sort.Slice(sas, func(i, j int) bool { return sas[i].key().addr < sas[j].key().addr })
	sort.Slice(das, func(i, j int) bool { return das[i].key().addr < das[j].key().addr })

	for _, sa := range sas {
		sa := sa
		for _, da := range das {
			da := da
			select {
			case <-o.cancel:
				return
			default:
			}
			if !intrinsicallyValid(&sa, &da) {
				continue
			}
			result := o.prober.Probe(ctx, &sa, &da, o.cfg.ProbePort, o.cfg.ProbeTimeout)
			o.st.markTried(sa, da)
			if result.Success {
				latencyMS := float64(result.Latency) / float64(time.Millisecond)
				o.st.upsertPair(sa, da, latencyMS)
				o.st.classifySuccess(sa, da)
			} else {
				o.st.removePair(sa, da)
			}
		}
	}
}

func (o *Oracle) pollLoop() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.PollPeriod)
	defer ticker.Stop()

	ctx := context.Background()
	o.runPollSweep(ctx)
	close(o.firstSweepDone)

	for {
		select {
		case <-o.cancel:
			return
		case <-ticker.C:
			o.runPollSweep(ctx)
		}
	}
}

// runMonitorTick runs one iteration of the monitor worker (spec
// §4.5): refresh the inventory, cascade removals for departed SAs,
// garbage-collect stale user DAs.
func (o *Oracle) runMonitorTick() {
	prev := o.st.currentSources()

	if err := o.inv.Refresh(); err != nil {
		// InventoryUnavailable mid-life: the error is dropped
		// without being logged (no logger is wired in this design)
		// and the next cycle retries, with the previous inventory
		// left untouched.
		return
	}

	next := o.inv.Sources()
	_, removed := diffSources(prev, next)
	o.st.setSources(next)

	for _, sa := range removed {
		o.st.removePairsForSA(sa)
	}
	if len(removed) > 0 {
		o.st.recomputeFlags()
	}

	gw6, gw4 := o.inv.Gateways()
	o.st.setGateways(ipString(gw6), ipString(gw4))

	ulaPresent := false
	for _, sa := range next {
		if sa.Scope == ScopeULA {
			ulaPresent = true
			break
		}
	}
	o.st.setULAPresent(ulaPresent)

	o.st.gcUserDAs(o.cfg.DAMaxAge, o.cfg.DAKeepFloor, o.cfg.DAMaxUser)
}

func (o *Oracle) monitorLoop() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-o.cancel:
			return
		case <-ticker.C:
			o.runMonitorTick()
		}
	}
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
