// Package temporal stores append-only, time-bounded facts about a project:
// architectural decisions, API contracts, constraints, and the like, each
// valid from its creation until explicitly invalidated or superseded. Facts
// are never deleted; history survives invalidation.
package temporal
