package events

// Hit is fired by the engine onto the pubsub ingress. It becomes a Damage
// notification once it reaches the event bus.
type Hit struct {
	ID        string `json:"id"`
	Round     int    `json:"round"`
	Target    string `json:"target"`
	Attacker  string `json:"attacker"`
	Amount    int    `json:"amount"`
	Timestamp string `json:"timestamp"`
}

// Damage represents a unit taking damage.
type Damage struct {
	HitID    string `json:"hitID"`
	Round    int    `json:"round"`
	Target   string `json:"target"`
	Attacker string `json:"attacker"`
	Amount   int    `json:"amount"`
}

// Destruction represents a unit being destroyed.
type Destruction struct {
	UnitID      string `json:"unitID"`
	UnitName    string `json:"unitName"`
	DestroyedBy string `json:"destroyedBy"`
	Round       int    `json:"round"`
}

// TurnChange represents a new round starting.
type TurnChange struct {
	Round     int    `json:"round"`
	Timestamp string `json:"timestamp"`
}
