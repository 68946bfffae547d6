// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oracle

import (
	"context"
	"sync"
)

// defaultOracle backs the package-level convenience API (spec §6
// Library API: init/get_addr_pairs/status as free functions). The
// ambient-global shape is deliberately confined to this one file: it
// is a thin wrapper over a single, lazily-constructed *Oracle handle,
// not the scattered module-level state the prototype used (spec §9
// "Global mutable state").
var (
	defaultOnce   sync.Once
	defaultOracle *Oracle
)

func getDefault() *Oracle {
	defaultOnce.Do(func() {
		defaultOracle = New(DefaultConfig())
	})
	return defaultOracle
}

// Init initializes the package-level default oracle. See Oracle.Init.
func Init() error {
	return getDefault().Init()
}

// GetAddrPairs resolves target on the package-level default oracle,
// implicitly initializing it if needed. See Oracle.GetAddrPairs.
func GetAddrPairs(ctx context.Context, target string, port int) ([]AddrPair, error) {
	return getDefault().GetAddrPairs(ctx, target, port)
}

// Status returns the package-level default oracle's connectivity
// flags. See Oracle.Status.
func Status() Flags {
	return getDefault().Status()
}

// Shutdown signals and joins the package-level default oracle's
// workers.
func Shutdown() {
	getDefault().Shutdown()
}
