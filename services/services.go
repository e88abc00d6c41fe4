// Package services holds the storefront business flows. Each service owns
// one table family, takes its dependencies through its constructor and
// attaches a deadline to every query it issues.
package services

import "time"

// queryTimeout bounds every backend call. A request that exceeds it is
// cancelled at the database, not just hidden from the caller.
const queryTimeout = 5 * time.Second

// Clock returns the current time. Injected so tests control time.
type Clock func() time.Time
