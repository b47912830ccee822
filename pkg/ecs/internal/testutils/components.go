package testutils

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Position) Name() string { return "Position" }

type Velocity struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Velocity) Name() string { return "Velocity" }

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type PlayerTag struct {
	Tag string `json:"tag"`
}

func (PlayerTag) Name() string { return "PlayerTag" }

// Frozen carries no data; its presence alone marks an entity.
type Frozen struct{}

func (Frozen) Name() string { return "Frozen" }

// Counter is used as a resource.
type Counter struct {
	Value int
}
