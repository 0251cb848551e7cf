// Package announce implements the announcement pipeline: deciding which
// rooms a message should reach, personalising the text for whoever is
// there, and driving the chime and text-to-speech capabilities of the
// hosting platform.
//
// The pipeline is assembled from small collaborators, each testable on
// its own:
//
//   - Resolver locates a person's current room from their tracker.
//   - Aggregator computes the set of occupied rooms.
//   - TargetResolver turns a request into the list of rooms to hit.
//   - Evaluator consults the gate store for room and person mutes.
//   - Composer selects voice settings, personalises, and optionally
//     runs the text through a conversation agent.
//   - Dispatcher orchestrates the per-room sequence and aggregates
//     failures.
//
// Rooms are independent: one room's mute or delivery failure never
// prevents the remaining rooms from being attempted.
package announce
