package core

// PlayOrder is a snapshot of the shuffled play order.
type PlayOrder struct {
	Tracks     []*Track `json:"tracks"`
	Cursor     int      `json:"cursor"`
	Generation int      `json:"generation"`
}

// Current returns the track at the cursor, or nil if the order is empty.
func (q *PlayOrder) Current() *Track {
	if q == nil || len(q.Tracks) == 0 || q.Cursor < 0 || q.Cursor >= len(q.Tracks) {
		return nil
	}
	return q.Tracks[q.Cursor]
}

// Upcoming returns tracks after the cursor.
func (q *PlayOrder) Upcoming() []*Track {
	if q == nil || len(q.Tracks) == 0 || q.Cursor < 0 || q.Cursor >= len(q.Tracks)-1 {
		return nil
	}
	return q.Tracks[q.Cursor+1:]
}

// Len returns the total number of tracks in the order.
func (q *PlayOrder) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tracks)
}

// IsEmpty returns true if the order has no tracks.
func (q *PlayOrder) IsEmpty() bool {
	return q.Len() == 0
}
