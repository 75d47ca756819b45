package iocore

// Wait is a convenience wrapper around Default().Wait, matching the
// legacy core's process-wide gpgme_wait entry point for callers that
// don't need more than one Manager.
func Wait(ctx Context, hang bool) (Serial, error) {
	return Default().Wait(ctx, hang)
}

// WaitExt is a convenience wrapper around Default().WaitExt.
func WaitExt(ctx Context, hang bool) (Serial, error, error) {
	return Default().WaitExt(ctx, hang)
}

// WaitOne is a convenience wrapper around Default().WaitOne.
func WaitOne(ctx Context, hang bool) (bool, error) {
	return Default().WaitOne(ctx, hang)
}

// WaitOneExt is a convenience wrapper around Default().WaitOneExt.
func WaitOneExt(ctx Context, hang bool) (bool, error, error) {
	return Default().WaitOneExt(ctx, hang)
}

// WaitOnCondition is a convenience wrapper around
// Default().WaitOnCondition.
func WaitOnCondition(ctx Context, cond func() bool, hang bool) (bool, error) {
	return Default().WaitOnCondition(ctx, cond, hang)
}
