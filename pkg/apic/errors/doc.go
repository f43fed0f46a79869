// Package errors provides rich error types for definition parsing and validation.
//
// Every error carries the document path of the offending node and, when known,
// its source location, so a load failure names both the file and the field:
//
//	[structural] x-js-error-content does not match the error shape (code, message) (at paths./orders.get.responses.200.x-js-error-content)
//	  --> definitions/orders.yaml:42:11
//	  |
//	  41 |           description: broken
//	  42 |           x-js-error-content:
//	     |           ^
//	  |
//	  = suggestion: Add the 'code' and 'message' field
//
// ErrorTypeSyntax and ErrorTypeStructural make up a configuration parse error;
// ErrorTypeIO is a configuration read error.
package errors
