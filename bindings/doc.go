// Package bindings provides typed stubs for the built-in interfaces.
//
// Each interface has a calling side and an implementing side:
//
//   - a client (NumbersClient, StringsClient, ManyArgumentsClient) turns typed
//     Go calls into Boundary Calls through a Caller, and checks the Go types of
//     the results it gets back;
//   - a Handlers adapter (NumbersHandlers, ...) turns a typed implementation
//     into a host.Implementation that a host module can serve.
//
// NumbersImpl, StringsImpl and ManyArgumentsImpl are the default
// implementations used by a session. NumbersImpl keeps its state in the
// session's host.Register.
package bindings
