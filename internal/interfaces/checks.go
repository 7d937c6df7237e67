package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/booklib/server/internal/auth"
	"github.com/booklib/server/internal/database/catalog"
	"github.com/booklib/server/internal/database/counters"
	"github.com/booklib/server/internal/database/ledger"
	"github.com/booklib/server/internal/downloads"
	"github.com/booklib/server/internal/filestore"
	"github.com/booklib/server/internal/http"
	"github.com/booklib/server/internal/scheduler"
	"github.com/booklib/server/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Catalog implementations
var _ downloads.Catalog = (*catalog.Repository)(nil)
var _ auth.UserResolver = (*catalog.Repository)(nil)

// Ledger implementations
var _ downloads.Ledger = (*ledger.Repository)(nil)
var _ http.DownloadLister = (*ledger.Repository)(nil)

// CounterStore implementations
var _ downloads.CounterStore = (*counters.Repository)(nil)
var _ http.HistoryStore = (*counters.Repository)(nil)

// Counter maintenance implementations
var _ scheduler.CounterMaintainer = (*counters.Repository)(nil)
var _ tasks.CounterRecomputer = (*counters.Repository)(nil)

// =============================================================================
// File Storage
// =============================================================================

// FileStore implementations
var _ downloads.FileStore = (*filestore.Local)(nil)

// =============================================================================
// Counter Propagation
// =============================================================================

// Dispatcher implementations
var _ downloads.Dispatcher = (*downloads.CounterPropagator)(nil)
var _ downloads.Dispatcher = (*tasks.QueueDispatcher)(nil)

// CounterApplier implementations
var _ tasks.CounterApplier = (*downloads.CounterPropagator)(nil)

// ReconcileEnqueuer implementations
var _ scheduler.ReconcileEnqueuer = (*tasks.ReconcileDispatcher)(nil)
