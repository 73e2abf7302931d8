package bot

import (
	"math/rand"
	"time"
)

// NewAgent creates an agent for a provisioned bot user, picking the
// strategy from the identity's difficulty. Unknown identities get the
// default strategy.
func NewAgent(userID string) (*Agent, error) {
	strategy := Brain(&Balanced{})
	name := userID
	if identity, ok := GetBotConfig(userID); ok {
		name = identity.DisplayName
		if identity.Difficulty == "easy" {
			strategy = NewRandom(rand.New(rand.NewSource(time.Now().UnixNano())))
		}
	}
	return &Agent{
		ID:       userID,
		Name:     name,
		Strategy: strategy,
	}, nil
}
