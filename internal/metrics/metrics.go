package metrics

import "expvar"

var (
	SyncRuns       = expvar.NewInt("sync_runs")
	SyncErrors     = expvar.NewInt("sync_errors")
	OrdersPlaced   = expvar.NewInt("orders_placed")
	OrdersCanceled = expvar.NewInt("orders_canceled")
	OrderErrors    = expvar.NewInt("order_errors")
	SnapshotSaves  = expvar.NewInt("snapshot_saves")
)
