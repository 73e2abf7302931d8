package app

import "belote/internal/domain"

// PlayersToStartGame is the number of occupied seats required to start a
// match. Every seat must be filled; short-handed tables never start.
const PlayersToStartGame = domain.NumSeats
