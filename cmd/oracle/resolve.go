// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mikioh/connoracle"
)

var resolveUsageTmpl = `Usage:
	oracle {{.Name}} [flags] host port

`

var (
	cmdResolve = &Command{
		Func:      resolveMain,
		Usage:     cmdUsage,
		UsageTmpl: resolveUsageTmpl,
		CanonName: "resolve",
		Aliases:   []string{"get"},
		Descr:     "Resolve a target through the connectivity oracle",
	}

	resolveTimeout time.Duration
)

func init() {
	cmdResolve.Flag.DurationVar(&resolveTimeout, "t", 5*time.Second, "Name resolution timeout")
}

func resolveMain(cmd *Command, args []string) {
	if len(args) != 2 {
		cmd.Flag.Usage()
	}
	port, err := strconv.Atoi(args[1])
	if err != nil {
		cmd.fatal(fmt.Errorf("invalid port %q: %w", args[1], err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	pairs, err := oracle.GetAddrPairs(ctx, args[0], port)
	if err != nil {
		cmd.fatal(err)
	}
	if len(pairs) == 0 {
		fmt.Println("no address pairs")
		return
	}
	for _, p := range pairs {
		fmt.Printf("%-5s %-25v -> %-25v %6.1fms\n", p.Family, p.Src, p.Dst, p.Latency)
	}
}
