/*
Package policy implements the step decision logic for the onboarding flow.

It is pure: NextStep and Validate perform no I/O and have no side effects, so
the same inputs always yield the same outputs. The package owns the closed
option sets for enumerated fields and the embedded location reference used to
resolve free-text locations.
*/
package policy
