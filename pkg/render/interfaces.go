// Package render pkg/render/interfaces.go
package render

import (
	"context"

	"github.com/sysline/sysline/pkg/models"
)

// Sink receives each rendered line together with the snapshot it was built
// from. Implementations must not retain the snapshot past the call.
type Sink interface {
	Publish(ctx context.Context, line string, snap models.Snapshot)
}
