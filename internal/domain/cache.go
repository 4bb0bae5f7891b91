package domain

import "context"

// DedupCache suppresses repeat observations of the same fingerprint within a
// TTL window. Seen is a check-and-insert: it records the fingerprint and
// reports whether it was already present and unexpired. The check and the
// insert happen under a single lock so two concurrent batches cannot both win
// the first-observer race.
type DedupCache interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
}

// SignalBus provides pub/sub fan-out of decision events to out-of-band
// consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
