/*
Package session implements per-user write serialization.

It provides a refcounted in-process lock map, optionally combined with a
distributed locker, so that two writers racing on the same user's fields are
serialized before they reach the store.
*/
package session
