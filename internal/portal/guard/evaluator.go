package guard

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
)

// Resolver maps a requested path to its route declaration.
type Resolver interface {
	Resolve(path string) (domain.RouteMeta, bool)
}

// Evaluator is the single dispatcher: resolve the route, pick its chain,
// run it.
type Evaluator struct {
	session Session
	routes  Resolver
	log     *slog.Logger
}

func NewEvaluator(s Session, routes Resolver, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{session: s, routes: routes, log: log}
}

// Evaluate decides the navigation to path. Unknown paths redirect to the
// fallback view; a route with an unknown chain is denied the same way.
func (e *Evaluator) Evaluate(ctx context.Context, path string) Decision {
	meta, ok := e.routes.Resolve(path)
	if !ok {
		return Decision{Redirect: domain.Redirect{Path: domain.PathFallback}, DeniedBy: "unknown_route"}
	}

	chain, err := ForKind(meta.Chain)
	if err != nil {
		e.log.Error("route has no usable guard chain", "pattern", meta.Pattern, "error", err)
		return Decision{Redirect: domain.Redirect{Path: domain.PathFallback}, DeniedBy: "unknown_chain"}
	}

	d := chain.Evaluate(ctx, e.session, Request{Path: path, Route: meta})
	e.log.Debug("guard decision",
		"path", path,
		"pattern", meta.Pattern,
		"chain", chain.Name,
		"allowed", d.Allowed,
		"denied_by", d.DeniedBy,
		"redirect", d.Redirect.String(),
	)
	return d
}
