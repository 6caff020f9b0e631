// Copyright (c) 2024 The Calyx developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/calyxlabs/calyx/metrics"

var (
	metricOpCount       = metrics.LazyLoadCounterVec("global_state_op_count", []string{"op", "result"})
	metricApplyDuration = metrics.LazyLoadHistogram("global_state_apply_duration_us", metrics.BucketDurationUs)
	metricCacheCount    = metrics.LazyLoadCounterVec("global_state_cache_count", []string{"event"})
)
