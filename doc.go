// Package iocore is the I/O multiplexing and event-dispatch core of a
// client library that drives long-running cryptographic subprocesses
// (key generation, sign/verify, encrypt/decrypt, keyring listing)
// through pipes.
//
// A Context (owned by the embedding application) registers its file
// descriptors with the process-wide fd table, then is driven to
// completion by one of three wait loops:
//
//   - the global loop (Wait/WaitExt), shared across every context that
//     has no user-supplied event loop;
//   - the private loop (WaitOnCondition/WaitOne/WaitOneExt), used for
//     blocking operations and for key/trust-item listing;
//   - the user-loop adapter (AddIOCbUser/RemoveIOCbUser), which bridges
//     registrations into an event loop owned by the embedding
//     application.
//
// The core does not schedule CPU work, does not own threads, and does
// not interpret the bytes flowing through registered file descriptors.
// It only decides when someone else should read or write them, and
// when an operation is done.
package iocore
