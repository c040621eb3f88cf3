// Package notify pkg/notify/interfaces.go
package notify

import "context"

//go:generate mockgen -destination=mock_notify.go -package=notify github.com/sysline/sysline/pkg/notify CommandRunner

// CommandRunner executes an external notification command.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}
