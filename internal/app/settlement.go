package app

import "belote/internal/domain"

// Settle computes the per-user wallet deltas for a finished match: every
// member of the winning team gains the table stake, every member of the
// losing team pays it. A drawn match settles nothing.
func Settle(table *Table, winner domain.Team) map[string]int64 {
	changes := make(map[string]int64, domain.NumSeats)
	if winner == domain.NoTeam || table.Stake <= 0 {
		return changes
	}

	for _, seat := range domain.Seats() {
		userID := table.UserAt(seat)
		if userID == "" {
			continue
		}
		if seat.Team() == winner {
			changes[userID] = table.Stake
		} else {
			changes[userID] = -table.Stake
		}
	}
	return changes
}
