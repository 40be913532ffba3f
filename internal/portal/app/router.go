package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/internal/portal/guard"
)

// MaxRedirects bounds how many guard redirects one navigation follows.
const MaxRedirects = 8

var ErrRedirectLoop = errors.New("app: too many redirects")

// Router tracks the current view and moves between views through the
// guard evaluator. It is the session's Navigator, so a forced logout lands
// here too.
type Router struct {
	eval *guard.Evaluator
	log  *slog.Logger

	mu      sync.Mutex
	current string
	forced  []domain.Redirect
}

// Navigation is the outcome of Visit.
type Navigation struct {
	Requested string
	// Entered is the view finally shown.
	Entered string
	// Hops lists each guard denial followed on the way.
	Hops []Hop
}

type Hop struct {
	From     string
	DeniedBy string
	To       domain.Redirect
}

// Redirected reports whether the requested view was refused.
func (n Navigation) Redirected() bool { return len(n.Hops) > 0 }

func (r *Router) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate records a redirect imposed by the session and moves there.
func (r *Router) Navigate(to domain.Redirect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forced = append(r.forced, to)
	r.current = to.String()
	r.log.Info("navigated", "to", r.current, "forced", true)
}

// Forced drains redirects imposed by the session since the last call.
func (r *Router) Forced() []domain.Redirect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.forced
	r.forced = nil
	return out
}

// Visit asks to enter path and follows guard redirects until a view admits
// the session.
func (r *Router) Visit(ctx context.Context, path string) (Navigation, error) {
	nav := Navigation{Requested: path}
	seen := map[string]bool{}

	target := path
	for {
		if err := ctx.Err(); err != nil {
			return nav, err
		}
		d := r.eval.Evaluate(ctx, target)
		if d.Allowed {
			break
		}
		nav.Hops = append(nav.Hops, Hop{From: target, DeniedBy: d.DeniedBy, To: d.Redirect})
		next := d.Redirect.String()
		if seen[next] || len(nav.Hops) >= MaxRedirects {
			return nav, fmt.Errorf("%w: %s", ErrRedirectLoop, next)
		}
		seen[target] = true
		target = next
	}

	r.mu.Lock()
	r.current = target
	r.mu.Unlock()

	nav.Entered = target
	return nav, nil
}
