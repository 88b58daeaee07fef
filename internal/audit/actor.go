package audit

import "context"

// SystemActor is used when no authenticated identity is attached to an operation.
const SystemActor = "System"

// Actor identifies who performed an operation, for attribution in the trail.
type Actor struct {
	Name string // Display name; empty means unattributed
	IP   string // Client IP, if the operation came over HTTP
}

// DisplayName returns the actor's name, falling back to SystemActor.
func (a Actor) DisplayName() string {
	if a.Name == "" {
		return SystemActor
	}
	return a.Name
}

type actorKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext extracts the actor from the context. Returns a zero Actor
// (attributed to SystemActor) when none is present.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{}
}
