// Package ctxopt carries the one piece of state that is legitimately
// request-scoped rather than construction-scoped: the session time zone
// used when rendering TimestampLtz values. Modeled on gosnowflake's
// internal/arrow context-key accessor pattern (EnableArrowBatches,
// WithTimestampOption, ...).
package ctxopt

import (
	"context"
	"strings"
	"time"
)

type contextKey string

const (
	keyTimeZone contextKey = "chunkcore-timezone"
)

// WithTimeZone attaches the session time zone to ctx, used by
// TimestampLtz rendering.
func WithTimeZone(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, keyTimeZone, loc)
}

// TimeZone returns the session time zone carried by ctx, or time.UTC if
// none was set.
func TimeZone(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(keyTimeZone).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}

// TicksUnit is the fixed sub-second tick granularity documented by the
// warehouse wire format for Time{scale>=4}. It is not configurable.
const TicksUnit = 100 * time.Nanosecond

// ResolveTimeZone resolves a session timezone name ("Local", "UTC", or an
// IANA name) to a *time.Location, falling back to time.Local on an
// unrecognized name rather than erroring, matching how a caller's
// connection-level timezone override is resolved once at session start.
func ResolveTimeZone(name string) *time.Location {
	tzName := strings.TrimSpace(name)
	switch strings.ToUpper(tzName) {
	case "", "LOCAL":
		return time.Local
	case "UTC":
		return time.UTC
	default:
		if l, err := time.LoadLocation(tzName); err == nil {
			return l
		}
		return time.Local
	}
}
