// Package provider defines the value types shared between the completion
// engine and its callers: provider endpoint configuration, the Chat
// Completions wire format, and the temperature support policy.
//
// Everything here is plain data. The engine reads these values but never
// mutates them, so a single Config may be shared across concurrent calls.
package provider
