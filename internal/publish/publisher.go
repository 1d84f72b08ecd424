// Package publish contains the outbound publishing client for postpilot.
package publish

import "context"

// Publisher attempts to publish one post and returns the platform's
// identifier for it. The scheduler issues calls sequentially and makes
// exactly one attempt per record; retry policy is the caller's concern.
type Publisher interface {
	// Publish posts text, optionally as a reply to another post. inReplyTo
	// may be empty.
	Publish(ctx context.Context, text, inReplyTo string) (id string, err error)
}
