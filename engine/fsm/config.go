package fsm

// Definition is the declarative form of a machine graph
type Definition struct {
	Name        string             `yaml:"name"`
	Initial     string             `yaml:"initial"`
	Events      map[string]EventID `yaml:"events"`
	States      []StateConfig      `yaml:"states"`
	Transitions []TransitionConfig `yaml:"transitions"`
}

// StateConfig names a state and its domain state ID
type StateConfig struct {
	Name string  `yaml:"name"`
	ID   StateID `yaml:"id"`
}

// TransitionConfig is one (from, event) -> to rule; order is significant
type TransitionConfig struct {
	From  string `yaml:"from"`
	Event string `yaml:"event"`
	To    string `yaml:"to"`
}
