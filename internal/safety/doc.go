// Package safety implements the Safety Policy Registry of spec.md §4.6: a
// boot-locked, per-tool mapping from tool name to reversibility,
// destructiveness, sandbox requirement, and rollback/pre-state handler
// identifiers. The registry is hashed at lock time so its contents cannot
// silently drift after boot, and a tool lacking a policy makes the rest of
// the pipeline refuse to execute it.
package safety
