package config

import (
	"fmt"

	"github.com/ahrav/portflow/internal/domain"
	"github.com/ahrav/portflow/internal/portgraph"
)

// ResolvedParam is a ParamConfig with its configuration-local vertex name
// resolved to the compiled graph's VID, ready to feed into
// wfstate.State.StoreParam once the caller has bound a State to the
// compiled graph.
type ResolvedParam struct {
	Vertex domain.VID
	Port   string
	Value  any
}

// Compiled is the result of compiling a GraphConfig: the built graph plus
// its parameters resolved against the graph's VIDs. Compile does not
// seed the parameters itself — a GraphConfig describes topology, not a
// particular execution's inputs, mirroring the original's separation
// between graph construction and workflow-state seeding (§2 data flow).
type Compiled struct {
	Graph  *portgraph.Graph
	Params []ResolvedParam
}

// Compile validates cfg's struct tags, resolves each vertex's actor
// through registry, wires every edge, and resolves every param
// reference. Compilation fails fast: on any error it returns (nil, err),
// not a partially built graph (I7).
func Compile(cfg GraphConfig, registry *ActorRegistry) (*Compiled, error) {
	if err := validateConfig(cfg, registry); err != nil {
		return nil, domain.NewConfigurationError(err.Error())
	}

	g := portgraph.New()
	vidByName := make(map[string]domain.VID, len(cfg.Vertices))

	for _, vc := range cfg.Vertices {
		if _, dup := vidByName[vc.ID]; dup {
			return nil, domain.NewConfigurationError(fmt.Sprintf("duplicate vertex id %q", vc.ID))
		}
		actor, err := registry.Create(vc.Actor.Type, vc.ID, vc.Actor.Params)
		if err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("vertex %q: %v", vc.ID, err))
		}
		vid, err := g.AddActor(actor, nil)
		if err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("vertex %q: %v", vc.ID, err))
		}
		vidByName[vc.ID] = vid
	}

	for _, ec := range cfg.Edges {
		srcVID, ok := vidByName[ec.Source]
		if !ok {
			return nil, domain.NewConfigurationError(fmt.Sprintf("edge references unknown vertex %q", ec.Source))
		}
		tgtVID, ok := vidByName[ec.Target]
		if !ok {
			return nil, domain.NewConfigurationError(fmt.Sprintf("edge references unknown vertex %q", ec.Target))
		}
		srcPID, err := g.OutPort(srcVID, ec.SourcePort)
		if err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("edge %s.%s: %v", ec.Source, ec.SourcePort, err))
		}
		tgtPID, err := g.InPort(tgtVID, ec.TargetPort)
		if err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("edge %s.%s: %v", ec.Target, ec.TargetPort, err))
		}
		if _, err := g.Connect(srcPID, tgtPID, nil); err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("connecting %s.%s -> %s.%s: %v", ec.Source, ec.SourcePort, ec.Target, ec.TargetPort, err))
		}
	}

	params := make([]ResolvedParam, 0, len(cfg.Params))
	for _, pc := range cfg.Params {
		vid, ok := vidByName[pc.Vertex]
		if !ok {
			return nil, domain.NewConfigurationError(fmt.Sprintf("param references unknown vertex %q", pc.Vertex))
		}
		params = append(params, ResolvedParam{Vertex: vid, Port: pc.Port, Value: pc.Value})
	}

	return &Compiled{Graph: g, Params: params}, nil
}
