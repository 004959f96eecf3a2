package lockproto

// syncResult is the outcome of the Sync protocol (spec §4.4.4).
type syncResult int

const (
	syncSuccess syncResult = iota
	syncConflict
)

// sync publishes the local commit or determines that another client
// has already published an incompatible one. The first push is a
// speculative optimisation — most of the time nobody raced, so it
// succeeds immediately. A rejection means the remote moved since
// clone; pull --rebase reapplies the local commit on top, and a
// rebase failure means another client committed to the same lock
// file, which is exactly the race this protocol exists to catch.
func sync(remote Remote) syncResult {
	if ok, _ := remote.Push(); ok {
		return syncSuccess
	}

	for attempt := 0; attempt < MaxSyncRetries; attempt++ {
		if ok, _ := remote.PullRebase(); !ok {
			return syncConflict
		}
		if ok, _ := remote.Push(); ok {
			return syncSuccess
		}
	}
	return syncConflict
}
