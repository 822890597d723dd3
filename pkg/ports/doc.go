/*
Package ports defines the driven ports (interfaces) for the onboarding engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various storage backends and lock providers.

# Key Interfaces

  - ProfileStore: Responsible for persisting and loading confirmed profile fields.
  - DistributedLocker: Provides distributed locking for concurrent same-user access.

RunProfileStoreContract is a reusable suite that every store adapter's tests
run to prove conformance.
*/
package ports
