package iocore

// GlobalWaitLoop is the engine-driven wait loop used for regular
// gpgme-style operations: register fds, post an EventStart, then call
// Wait/WaitExt until the context's EventDone arrives.
//
// Wait drives every LoopGlobal context registered with m when ctx is
// nil, or just the one given. With hang true it blocks until a
// context finishes; with hang false it makes exactly one pass and
// returns (0, nil) if nothing had finished yet.
func (m *Manager) Wait(ctx Context, hang bool) (Serial, error) {
	serial, err, _ := m.WaitExt(ctx, hang)
	return serial, err
}

// WaitExt is Wait with the engine-level operation error surfaced
// alongside the transport error, matching the legacy core's
// gpgme_wait_ext/gpgme_wait split.
func (m *Manager) WaitExt(ctx Context, hang bool) (Serial, error, error) {
	var scope Serial
	if ctx != nil {
		scope = ctx.Serial()
	}

	for {
		snap := m.table.getFDs(scope, flagActive|flagClear)
		if len(snap) > 0 || m.cfg.pacingSelect {
			n, err := m.sel.selectReady(snap)
			if err != nil {
				// A selector failure here is surfaced to the caller
				// unchanged; unlike the private loop, the global loop
				// never cancels a context on its behalf (spec.md §4.3,
				// §4.7).
				return 0, err, nil
			}
			m.log().Debug().Int("fds", len(snap)).Int("ready", n).Msg("global wait: selector pass")
		}
		m.table.setSignalled(snap)

		if err := m.table.runIOCbs(scope); err != nil {
			// The callback is responsible for cancelling its own
			// context on a terminal failure; this loop only needs to
			// notice a completion that cancellation produces, via
			// getDone below.
			m.log().Debug().Err(err).Msg("global wait: io callback aborted its pass")
		}

		if done, err, opErr := m.table.getDone(scope); done != 0 {
			m.UnregisterContext(done)
			return done, err, opErr
		}

		if !hang {
			return 0, nil, nil
		}
	}
}
