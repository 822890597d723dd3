/*
Package domain contains the core domain models for the onboarding engine.

It defines the fundamental entities of the flow: the fixed field-key
enumeration, the persisted ProfileField record, and the derived Session view.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - FieldKey: One of the six fixed onboarding data points, in a fixed order.
  - ProfileField: A confirmed datum about a user; at most one per (user, key).
  - Session: The derived onboarding view; recomputed on every read, never stored.
  - FieldConfirmed: The event emitted to read-only projections after a durable write.
*/
package domain
