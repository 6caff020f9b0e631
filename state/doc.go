// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state implements the global state of the contract execution engine.
// It follows the flow as below:
//
//	        o
//	        |
//	[ tracking copy ]
//	        |
//	 [ stacked map ] -> [ effect log ] -> [ replay(commit) ] -> [ global state ]
//	        |
//	 [ value cache ]
//	        |
//	  [ kv store ]
//
// Transforms applied to one key converge to the same value regardless of
// application order, as long as only accumulation shapes are involved. That
// keeps independently validated effect streams consistent across nodes.
package state
