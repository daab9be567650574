/*
Package session serializes transcript access per conversation.

A render-and-append exchange must see a stable transcript: the manager hands
out one mutex per session ID (reference counted, so idle sessions cost
nothing) and optionally holds a distributed lock so replicas sharing one
store do not interleave exchanges.
*/
package session
