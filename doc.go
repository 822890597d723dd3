/*
Package onboard is a session-scoped onboarding state machine with idempotent,
resumable, multi-writer field confirmation.

It collects a fixed, ordered set of profile fields from fractional executives
through a conversational front end. The current step is never stored: it is
derived on every read from the confirmed fields persisted in a ProfileStore,
which makes reconnection and out-of-order input correct by construction.

# Concept

The engine accepts field assertions in any order. Each assertion is validated
by a pure step policy, persisted by a single atomic per-key upsert, and
answered with a complete session snapshot. There is nothing to roll back and
nothing to reconcile: either the write happened (durable) or it did not, and
the identical call is safely retryable.

# Key Features

  - Derived state: the current step and completion flag are recomputed from
    durable fields, never cached, so a process restart loses nothing.
  - Out-of-order acceptance: a user may state their location before being
    asked; the next step skips whatever is already known.
  - Hexagonal Architecture: core logic is decoupled from adapters (memory,
    file, Redis, and PostgreSQL stores; HTTP and MCP gateways).
  - Multi-writer safety: per-user serialization in process, optional
    distributed locking across replicas.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/fractionalquest/onboard"
	)

	func main() {
		eng := onboard.New()

		ctx := context.Background()
		sess, err := eng.AssertField(ctx, "user-123", "trinity", "job_search")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("next step: %s", sess.CurrentStep)
	}
*/
package onboard
