// Package netutil hands out free TCP ports for commands under test.
// PortRegistry binds every requested port at once to guarantee distinctness,
// and remembers what it handed out so concurrent sessions in one process
// never receive the same port.
package netutil
