// Package testutil contains helpers used across tests to reduce boilerplate
// when building conversations and scripting human input. They are not
// intended for production usage.
package testutil
