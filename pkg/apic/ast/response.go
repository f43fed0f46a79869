package ast

import (
	"math"
	"strconv"
	"strings"
)

// Response documents one status code of a method.
type Response struct {
	Description string
	Schemas     []ResponseSchema // Zero or more x-js-* shaping schemas, in document order

	Extensions Extensions
	Location   Location
}

// SchemaKind discriminates the ResponseSchema union.
type SchemaKind string

const (
	SchemaKindContent SchemaKind = "content" // x-js-schema / x-js-content / x-js-type
	SchemaKindError   SchemaKind = "error"   // x-js-error-content / x-error-message
)

// Response schema extension keys, grouped by the variant they are tried for first.
var (
	ContentSchemaKeys = []string{"x-js-schema", "x-js-content", "x-js-type"}
	ErrorSchemaKeys   = []string{"x-js-error-content", "x-error-message"}
)

// ResponseSchema is a tagged union: exactly one of Content or Error is set, matching Kind.
type ResponseSchema struct {
	Kind    SchemaKind
	Key     string // Extension key the schema was read from
	Content *ContentSchema
	Error   *ErrorSchema

	Location Location
}

// ContentSchema describes how a successful payload is extracted and shaped.
type ContentSchema struct {
	Path     string
	Property string
	Message  string // Optional
	Code     *int   // Optional
	Type     string // Optional
}

// ErrorSchema describes the error payload exposed for a status code.
type ErrorSchema struct {
	Code      ErrorCode
	Message   string
	SubErrors []SubError
}

// SubError is a nested error entry of an ErrorSchema.
type SubError struct {
	Code    int
	Message string
}

// ContentSchema returns the first content schema of the response, or nil.
func (r *Response) ContentSchema() *ContentSchema {
	if r == nil {
		return nil
	}
	for i := range r.Schemas {
		if r.Schemas[i].Kind == SchemaKindContent {
			return r.Schemas[i].Content
		}
	}
	return nil
}

// ErrorSchema returns the first error schema of the response, or nil.
func (r *Response) ErrorSchema() *ErrorSchema {
	if r == nil {
		return nil
	}
	for i := range r.Schemas {
		if r.Schemas[i].Kind == SchemaKindError {
			return r.Schemas[i].Error
		}
	}
	return nil
}

// ErrorCode is an error code normalized to its canonical string form.
// Integers, integral floats and numeric strings all share one representation,
// so 200, 200.0 and "200" compare equal.
type ErrorCode string

// ErrorCodeFromInt normalizes an integer code.
func ErrorCodeFromInt(v int64) ErrorCode {
	return ErrorCode(strconv.FormatInt(v, 10))
}

// ErrorCodeFromFloat normalizes a floating point code. Integral values lose
// their fractional part; other values keep the shortest exact decimal form.
func ErrorCodeFromFloat(v float64) ErrorCode {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrorCode(strconv.FormatFloat(v, 'g', -1, 64))
	}
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return ErrorCodeFromInt(int64(v))
	}
	return ErrorCode(strconv.FormatFloat(v, 'f', -1, 64))
}

// ErrorCodeFromString normalizes a string code. Numeric strings are normalized
// like numbers; anything else is kept verbatim after trimming whitespace.
func ErrorCodeFromString(s string) ErrorCode {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ErrorCodeFromInt(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return ErrorCodeFromFloat(f)
	}
	return ErrorCode(s)
}

// String returns the canonical form.
func (c ErrorCode) String() string {
	return string(c)
}

// Int returns the code as an integer when it is one.
func (c ErrorCode) Int() (int, bool) {
	i, err := strconv.Atoi(string(c))
	if err != nil {
		return 0, false
	}
	return i, true
}

// IsZero returns true if no code was set.
func (c ErrorCode) IsZero() bool {
	return c == ""
}
