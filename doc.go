// Copyright 2014 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oracle implements a continuously-maintained connectivity
// oracle: a replacement for naive source-address selection that
// probes plausible (source, destination) address pairs, remembers
// which ones work, and answers name/port lookups with ranked
// (family, source, destination) triples ready for bind/connect.
//
// The oracle keeps two long-lived workers running against a shared,
// mutex-guarded state: a poll worker that sweeps candidate address
// pairs and records which ones are reachable, and a monitor worker
// that refreshes the local address inventory and garbage-collects
// stale destinations. Callers resolve a target through GetAddrPairs,
// which merges measured evidence with a small policy table.
package oracle
