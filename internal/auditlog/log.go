// Package auditlog writes structured audit events for every transaction
// state change. Events are fire-and-forget: a failed write is itself logged
// but never fails the business operation.
package auditlog

import (
	"context"

	"github.com/rs/zerolog"
)

// Logger records audit events.
type Logger interface {
	Event(ctx context.Context, event string, fields map[string]interface{})
}

// ZerologAuditor writes audit events through the context logger.
type ZerologAuditor struct{}

// New returns a zerolog-backed auditor.
func New() *ZerologAuditor {
	return &ZerologAuditor{}
}

// Event writes one audit entry enriched with the request-scoped logger context.
func (a *ZerologAuditor) Event(ctx context.Context, event string, fields map[string]interface{}) {
	l := zerolog.Ctx(ctx)

	e := l.Info().Str("audit_event", event)
	for k, v := range fields {
		e = e.Interface(k, v)
	}

	e.Msg("audit")
}

// Nop discards every event. Useful in tests.
type Nop struct{}

// Event implements Logger by doing nothing.
func (Nop) Event(context.Context, string, map[string]interface{}) {}
