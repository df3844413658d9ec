// Package config implements the declarative Graph Configuration of
// SPEC_FULL.md §10: a YAML description of a port graph's vertices,
// ports, and wiring, struct-tag validated and compiled into a
// *portgraph.Graph bound to concrete actors resolved through an
// ActorRegistry. Grounded in the teacher's internal/application/config.go
// (struct shape + yaml/validate tags).
package config

// GraphConfig is the top-level declarative description of a port graph.
type GraphConfig struct {
	// Version identifies the configuration schema version.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata carries descriptive, non-structural information.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Vertices lists every vertex and the actor bound to it.
	Vertices []VertexConfig `yaml:"vertices" validate:"required,min=1,dive"`
	// Edges lists the port-to-port wiring between vertices.
	Edges []EdgeConfig `yaml:"edges" validate:"dive"`
	// Params seeds parameters on unconnected input ports.
	Params []ParamConfig `yaml:"params" validate:"dive"`
}

// Metadata is descriptive information about a GraphConfig, carried
// through compilation but never interpreted by it.
type Metadata struct {
	Name        string   `yaml:"name" validate:"required,min=1,max=255"`
	Description string   `yaml:"description" validate:"max=1000"`
	Tags        []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
}

// VertexConfig names a vertex and the actor to bind to it.
type VertexConfig struct {
	// ID is the vertex's configuration-local name, used by EdgeConfig and
	// ParamConfig to refer back to it; it is not the engine's VID.
	ID    string      `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	Actor ActorConfig `yaml:"actor" validate:"required"`
}

// ActorConfig names an actor type known to an ActorRegistry plus the
// parameters used to construct it.
type ActorConfig struct {
	Type   string         `yaml:"type" validate:"required,actortype"`
	Params map[string]any `yaml:"params"`
}

// EdgeConfig wires one vertex's named output port to another's named
// input port.
type EdgeConfig struct {
	Source     string `yaml:"source" validate:"required,alphanum"`
	SourcePort string `yaml:"source_port" validate:"required"`
	Target     string `yaml:"target" validate:"required,alphanum"`
	TargetPort string `yaml:"target_port" validate:"required"`
}

// ParamConfig seeds a literal value on an unconnected input port.
type ParamConfig struct {
	Vertex string `yaml:"vertex" validate:"required,alphanum"`
	Port   string `yaml:"port" validate:"required"`
	Value  any    `yaml:"value"`
}
