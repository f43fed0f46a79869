// Switchboard is an API gateway that serves API-Connect style definitions.
//
// Each definition is a Swagger 2.0 document carrying an x-ibm-configuration
// assembly. Switchboard loads every definition under a directory, routes
// inbound requests to the matching operation, and runs the assembly's policy
// tree against the request.
//
// Usage:
//
//	# Serve definitions from ./definitions on :3000
//	switchboard run
//
//	# Serve with a configuration file and hot reload
//	switchboard run --config switchboard.yaml --watch
//
//	# Check definitions without serving them
//	switchboard validate ./definitions --strict
//
//	# Show which policies run for one operation
//	switchboard inspect orders.yaml --operation "get /orders"
//
//	# Query execution records
//	switchboard evidence query --state failed --since 1h
package main

func main() {
	Execute()
}
