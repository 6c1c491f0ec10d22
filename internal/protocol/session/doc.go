// Package session carries protocol frames over TCP or TLS.
//
// The server side reads one request frame at a time from each connection,
// hands it to a Handler and writes exactly one answer before reading the next.
// A handler error drops the connection. The client side, Conn, dials with
// backoff, stamps message ids and checks that each answer echoes its id.
package session
