package screening

import (
	"context"
	"strings"
	"time"
)

// EntityGraph supplies aliases and related parties for a target. The bundled
// implementation derives them from deterministic name transforms; a real
// entity-graph client can replace it without touching the resolver's
// callers.
type EntityGraph interface {
	Aliases(ctx context.Context, target string, class EntityClass) ([]string, error)
	Related(ctx context.Context, target string, class EntityClass) ([]RelatedEntity, error)
}

// StaticEntityGraph generates candidate names by string transforms. The
// output is a starting point for screening, not verified relationships.
type StaticEntityGraph struct{}

func (StaticEntityGraph) Aliases(ctx context.Context, target string, class EntityClass) ([]string, error) {
	return []string{
		target + " Protocol",
		target + " Token",
		target + " DAO",
	}, nil
}

func (StaticEntityGraph) Related(ctx context.Context, target string, class EntityClass) ([]RelatedEntity, error) {
	return []RelatedEntity{
		{Name: target + " Foundation", Relationship: "parent_organization"},
		{Name: target + " Labs", Relationship: "development_team"},
	}, nil
}

// EntityResolver classifies targets and expands them to aliases and related
// parties through an EntityGraph.
type EntityResolver struct {
	graph EntityGraph
}

// NewEntityResolver creates a resolver; a nil graph falls back to the static
// transform generator.
func NewEntityResolver(graph EntityGraph) *EntityResolver {
	if graph == nil {
		graph = StaticEntityGraph{}
	}
	return &EntityResolver{graph: graph}
}

// Classify infers an entity class from name keywords.
func Classify(target string) EntityClass {
	nt := Normalize(target)
	switch {
	case containsAny(nt, "defi", "protocol", "swap", "dex"):
		return ClassDeFiProtocol
	case containsAny(nt, "token", "coin", "crypto"):
		return ClassCryptoAsset
	case containsAny(nt, "dao", "foundation"):
		return ClassCryptoOrganization
	default:
		return ClassUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Resolve classifies the target and asks the graph for aliases and related
// parties. Graph failures degrade to an empty expansion rather than an
// error; a classified target carries higher confidence than UNKNOWN.
func (r *EntityResolver) Resolve(ctx context.Context, target string) ResolutionResult {
	result := ResolutionResult{
		Target:      target,
		Timestamp:   time.Now(),
		EntityClass: Classify(target),
	}

	if aliases, err := r.graph.Aliases(ctx, target, result.EntityClass); err == nil {
		result.Aliases = aliases
	}
	if related, err := r.graph.Related(ctx, target, result.EntityClass); err == nil {
		result.Related = related
	}

	if result.EntityClass == ClassUnknown {
		result.Confidence = 0.4
	} else {
		result.Confidence = 0.85
	}
	return result
}
