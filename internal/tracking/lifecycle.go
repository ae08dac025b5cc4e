package tracking

// recordMatch resets the miss counter and advances the state machine after
// a successful association. A match from any non-deleted state returns the
// track to confirmed; tentative tracks must first accumulate enough
// matches.
func recordMatch(t *Track, p Params) {
	t.MatchCount++
	t.MissedCount = 0

	switch t.State {
	case TrackTentative:
		if t.MatchCount >= p.ConfirmationThreshold {
			t.State = TrackConfirmed
		}
	case TrackConfirmed, TrackOccluded, TrackLost:
		t.State = TrackConfirmed
	}
}

// recordMiss increments the miss counter and advances the state machine.
// The returned event type is the transition the miss caused, if any.
func recordMiss(t *Track, p Params) (EventType, bool) {
	t.MissedCount++

	switch t.State {
	case TrackConfirmed:
		t.State = TrackOccluded
		if t.MissedCount >= p.MissedThreshold {
			t.State = TrackLost
			return EventLoss, true
		}
	case TrackTentative, TrackOccluded:
		if t.MissedCount >= p.MissedThreshold {
			t.State = TrackLost
			return EventLoss, true
		}
	case TrackLost:
		if t.MissedCount >= p.DeletionThreshold {
			t.State = TrackDeleted
			return EventDeletion, true
		}
	}
	return "", false
}

// active reports whether the track participates in prediction and
// first-pass association. Lost tracks sit in the re-identification pool
// instead; deleted tracks are gone.
func (t *Track) active() bool {
	switch t.State {
	case TrackTentative, TrackConfirmed, TrackOccluded:
		return true
	}
	return false
}
