// Package plugin defines the component abstraction for the kitstrap installer.
//
// A Plugin is a self-contained, registrable unit that deploys one piece of the
// framework into a target environment: copying assets, merging configuration
// files, or registering hooks. Every plugin exposes the same lifecycle surface:
//
//	Install(ctx)  - perform the deployment action
//	Verify(ctx)   - check that a prior install is still intact
//	Uninstall(ctx) - optional, reverses Install (see Uninstaller)
//
// Plugins declare dependencies on other plugins by name and carry a numeric
// priority; the registry package turns those declarations into a total
// execution order.
//
// Expected failures (missing source files, permission problems, prerequisite
// checks) are reported through Result with Success set to false, never by
// panicking. Panics are reserved for programmer errors.
package plugin
