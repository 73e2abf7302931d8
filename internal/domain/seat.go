package domain

// Seat is one of the four cyclic player positions, numbered 1..4.
type Seat int

const (
	NoSeat Seat = iota
	Seat1
	Seat2
	Seat3
	Seat4
)

// NumSeats is the number of player positions at a table.
const NumSeats = 4

// Team is one of the two fixed partnerships. Seats 1 and 3 form Team1,
// seats 2 and 4 form Team2.
type Team int

const (
	NoTeam Team = iota
	Team1
	Team2
)

// Next returns the seat following s in rotation order, wrapping 4 to 1.
func (s Seat) Next() Seat {
	return (s-1+1)%NumSeats + 1
}

// Previous returns the seat preceding s in rotation order.
func (s Seat) Previous() Seat {
	return (s-1+NumSeats-1)%NumSeats + 1
}

// Advance returns the seat n positions after s in rotation order.
func (s Seat) Advance(n int) Seat {
	return (s-1+Seat(n))%NumSeats + 1
}

// Team returns the partnership the seat belongs to.
func (s Seat) Team() Team {
	if s == Seat1 || s == Seat3 {
		return Team1
	}
	return Team2
}

// Teammate returns the seat sitting opposite s.
func (s Seat) Teammate() Seat {
	return s.Advance(2)
}

// Seats lists all seats in rotation order starting from Seat1.
func Seats() []Seat {
	return []Seat{Seat1, Seat2, Seat3, Seat4}
}

// Teams lists both partnerships.
func Teams() []Team {
	return []Team{Team1, Team2}
}
