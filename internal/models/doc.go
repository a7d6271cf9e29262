// Package models defines the values that flow through a bgmx sync.
//
// Transient values live only for the duration of one run:
//   - [Entry] : one wish-list item, a subject id and its canonical release date
//
// Persisted values back the optional run history:
//   - [SyncRun] : one invocation with its counters and the reason it stopped
//   - [SyncEvent] : one per-entry decision taken during a run
//
// Persisted values implement [Model]; repositories implement [Repository] for them.
package models
