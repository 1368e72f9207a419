// Package bot wires platform events to the ledger components and
// dispatches chat commands.
//
// Event handlers are plain methods called by the gateway shim in delivery
// order; each one runs its database work to completion through the tenant
// registry before returning. The dispatcher maps the command verbs
// (react, unreact, top, bottom, users, reset, help, adminhelp) to the
// synchronizer, recorder, aggregator, and rotate manager. Failures reach
// chat only for permission denials and a rotation blocked by a concurrent
// reader; everything else degrades to a log line.
package bot
