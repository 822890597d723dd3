/*
Package onboarding implements the resumable onboarding state machine.

The machine is a deterministic reducer plus a durability barrier: it
validates a proposed field value through the step policy, performs one atomic
store write, and recomputes the session view from the store's authoritative
contents. States are fully derived from which fields are present and
confirmed, so there are no stored cursors to drift after a restart.
*/
package onboarding
