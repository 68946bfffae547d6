// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/mikioh/connoracle"
)

var statusUsageTmpl = `Usage:
	oracle {{.Name}} [flags]

`

var cmdStatus = &Command{
	Func:      statusMain,
	Usage:     cmdUsage,
	UsageTmpl: statusUsageTmpl,
	CanonName: "status",
	Aliases:   []string{"sh", "show"},
	Descr:     "Show the oracle's current connectivity flags",
}

func statusMain(cmd *Command, args []string) {
	if err := oracle.Init(); err != nil {
		cmd.fatal(err)
	}
	f := oracle.Status()
	fmt.Printf("GUA:        %v\n", f.GUAOk)
	fmt.Printf("ULA:        %v\n", f.ULAOk)
	fmt.Printf("LLA:        %v\n", f.LLAOk)
	fmt.Printf("NPTv6:      %v\n", f.NPTv6)
	fmt.Printf("IPv4:       %v\n", f.IPv4Ok)
	fmt.Printf("NAT44:      %v\n", f.NAT44)
	fmt.Printf("ULA present: %v\n", f.ULAPresent)
	fmt.Printf("gateway6:   %v\n", f.Gateway6)
	fmt.Printf("gateway4:   %v\n", f.Gateway4)
}
