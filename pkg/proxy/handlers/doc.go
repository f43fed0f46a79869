// Package handlers provides the gateway's HTTP handler.
//
// For every inbound request the Gateway:
//
//  1. Takes the current catalog snapshot. A reload during the request does
//     not affect it.
//  2. Matches method and path to a declared operation: 404 when no path
//     matches, 405 with an Allow header when the path exists without the
//     verb.
//  3. Builds a fresh execution context from the request and runs the
//     definition's assembly.
//  4. Writes the final message, or the default error body with the mapped
//     status when the assembly ended with an uncaught failure.
//  5. Hands an evidence record to the recorder.
package handlers
