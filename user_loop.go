package iocore

// UserLoopAdapter bridges registrations into an event loop owned by
// the embedding application (LoopUser contexts): instead of this
// package's own Selector, readiness is learned one fd at a time
// through the application's UserIOCbs vtable.

// AddIOCbUser registers fd/dir/cb for ctx with both the fd table and
// the context's UserIOCbs vtable. The function installed with the
// application's loop scopes run_io_cbs to this single fd and
// synthesizes an EventDone once ctx has nothing left registered.
func (m *Manager) AddIOCbUser(ctx UserContext, fd int, dir Direction, cb Callback) (*Tag, error) {
	if cb == nil {
		return nil, NewError("add_io_cb_user", KindInvalidArgument, "callback must not be nil")
	}
	cbs := ctx.UserIOCbs()
	if cbs == nil {
		return nil, NewError("add_io_cb_user", KindInvalidArgument, "context has no UserIOCbs")
	}

	if err := m.table.setIOCb(fd, ctx.Serial(), dir, cb); err != nil {
		return nil, err
	}
	slot, gen := m.slotOf(fd)

	userTag, err := cbs.Add(fd, dir, func() error {
		return m.runUserFD(ctx, fd)
	})
	if err != nil {
		m.table.setIOCb(fd, ctx.Serial(), dir, nil)
		return nil, err
	}

	m.log().Debug().Uint64("serial", uint64(ctx.Serial())).Int("fd", fd).Msg("user io callback registered")
	return &Tag{serial: ctx.Serial(), fd: fd, dir: dir, slot: slot, gen: gen, userTag: userTag}, nil
}

// RemoveIOCbUser undoes AddIOCbUser: it asks the application's loop to
// uninstall its own registration first, then drops the fd table
// registration, matching the legacy core's removal order.
func (m *Manager) RemoveIOCbUser(ctx UserContext, tag *Tag) {
	if tag == nil {
		return
	}
	if cbs := ctx.UserIOCbs(); cbs != nil {
		cbs.Remove(tag.userTag)
	}
	m.table.setIOCb(tag.fd, tag.serial, tag.dir, nil)
	m.log().Debug().Uint64("serial", uint64(tag.serial)).Int("fd", tag.fd).Msg("user io callback removed")
}

// runUserFD is the wrapper the application's event loop actually
// invokes on readiness. It marks the single fd signalled, runs
// whatever callbacks that makes runnable for ctx's serial, and, once
// nothing remains registered, posts EventDone so the user handler can
// notify the application.
func (m *Manager) runUserFD(ctx UserContext, fd int) error {
	serial := ctx.Serial()
	if !m.table.signalFD(serial, fd) {
		// Already removed (e.g. by a concurrent cancellation); nothing
		// to run.
		return nil
	}

	err := m.table.runIOCbs(serial)
	if err != nil {
		m.log().Debug().Err(err).Msg("user wait: io callback aborted its pass")
	}

	if m.table.ioCbCount(serial) == 0 {
		m.EngineIOEvent(serial, Event{Kind: EventDone})
	}

	return err
}
