// Copyright 2015 Mikio Hara. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Oracle starts a connectivity oracle against the local host and serves
resolve/status queries from the command line.

Usage:

	oracle command [flags] [arguments]

The commands are:

	resolve    Resolve a target through the connectivity oracle
	status     Show the oracle's current connectivity flags
*/
package main
