package iocore

// PrivateWaitLoop is used by single-shot, synchronous-looking
// operations (the keylisting/trustlisting helpers built on top of the
// core) that drive their own fds without ever posting START/DONE:
// completion is detected by the loop itself, either via a
// caller-supplied predicate or by the registration count for the
// context dropping to zero.

// WaitOnCondition blocks (if hang) until cond reports true, or, if
// cond is nil, until every fd registered for ctx has been removed.
// It activates ctx's registrations itself on first use, since a
// private-loop context never receives a START event.
func (m *Manager) WaitOnCondition(ctx Context, cond func() bool, hang bool) (bool, error) {
	serial := ctx.Serial()

	finished := func() bool {
		if cond != nil {
			return cond()
		}
		return m.table.ioCbCount(serial) == 0
	}

	for {
		if finished() {
			return true, nil
		}

		if err := m.table.setActive(serial); err != nil {
			return false, err
		}

		snap := m.table.getFDs(serial, flagActive|flagClear)
		if len(snap) > 0 || m.cfg.pacingSelect {
			n, err := m.sel.selectReady(snap)
			if err != nil {
				m.cancelWithErr(ctx, err, nil)
				return false, err
			}
			m.log().Debug().Int("fds", len(snap)).Int("ready", n).Msg("private wait: selector pass")
		}
		m.table.setSignalled(snap)

		if err := m.table.runIOCbs(serial); err != nil {
			m.log().Debug().Err(err).Msg("private wait: io callback aborted its pass")
		}

		if done, err, _ := m.table.getDone(serial); done != 0 {
			// Cancellation reached us through a callback rather than
			// the condition or the fd count; report it as the wait's
			// own failure.
			return false, err
		}

		if finished() {
			return true, nil
		}

		if !hang {
			return false, nil
		}
	}
}

// WaitOne is WaitOneExt without its third return value.
func (m *Manager) WaitOne(ctx Context, hang bool) (bool, error) {
	done, err, _ := m.WaitOneExt(ctx, hang)
	return done, err
}

// WaitOneExt waits for ctx alone, using the default fd-count
// completion rule. Its third return value, the engine-level operation
// error, is always nil: WaitOnCondition does not report the op_err
// recorded when ctx is cancelled.
func (m *Manager) WaitOneExt(ctx Context, hang bool) (bool, error, error) {
	done, err := m.WaitOnCondition(ctx, nil, hang)
	if err != nil {
		return done, err, nil
	}
	return done, nil, nil
}
