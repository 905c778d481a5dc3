// Package manager is the facade that selects, loads and invokes exactly one
// inference plugin at a time. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: lifecycle State, the loaded handle and Snapshot.
//   - errors.go: error types and helpers (IsResourceBusy, IsModelNotLoaded, ...).
//   - guard.go: the non-queuing execution guard shared by load, unload and predict.
//   - select.go: per-session catalog navigation and weight/param/hyper switches.
//   - load.go: resolve, swap and construct a plugin; builds the hyper schema.
//   - predict.go: marshal hyperparameters and run the loaded plugin.
//   - unload.go: release the loaded plugin.
//   - status_report.go: Status/Snapshot reporting helpers.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// Session state lives in a session.Store and is shared by nothing but its
// owner; the handle and the guard are the only process-wide mutable state.
// Load, unload and predict all hold the guard, so a prediction always runs
// against the handle that was loaded when it acquired the guard. A caller
// that finds the guard taken gets ResourceBusyError immediately; retrying is
// the caller's policy.
//
// External packages should use the public methods only (New, Catalog,
// SelectTask, SelectPipelineRevision, SwitchWeight, SwitchParam, LoadModel,
// SwitchHyper, Predict, Unload, Current, Status, Ready).
package manager
