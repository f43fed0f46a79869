package engine

import (
	"encoding/json"
	"net/http"
	"strconv"

	"switchboard-hq/switchboard/pkg/apic/ast"
)

// DefaultErrorBody is the gateway's default error payload.
type DefaultErrorBody struct {
	HTTPCode        string `json:"httpCode"`
	HTTPMessage     string `json:"httpMessage"`
	MoreInformation string `json:"moreInformation"`
}

// DeclaredErrorBody is the payload rendered from an x-js-error-content schema.
type DeclaredErrorBody struct {
	Code      any                `json:"code"`
	Message   string             `json:"message"`
	SubErrors []DeclaredSubError `json:"suberrors"`
}

// DeclaredSubError is one entry of DeclaredErrorBody.SubErrors.
type DeclaredSubError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewDefaultErrorBody builds the default payload for err at status. The
// error detail is exposed only when expose is set.
func NewDefaultErrorBody(status int, err *PolicyError, expose bool) DefaultErrorBody {
	body := DefaultErrorBody{
		HTTPCode:        strconv.Itoa(status),
		HTTPMessage:     http.StatusText(status),
		MoreInformation: "The request could not be processed.",
	}
	if expose && err != nil {
		if err.Message != "" {
			body.MoreInformation = err.Message
		} else {
			body.MoreInformation = err.Error()
		}
	}
	return body
}

// NewDeclaredErrorBody builds the payload described by schema.
func NewDeclaredErrorBody(schema *ast.ErrorSchema) DeclaredErrorBody {
	body := DeclaredErrorBody{
		Code:      schema.Code.String(),
		Message:   schema.Message,
		SubErrors: make([]DeclaredSubError, 0, len(schema.SubErrors)),
	}
	if n, ok := schema.Code.Int(); ok {
		body.Code = n
	}
	for _, se := range schema.SubErrors {
		body.SubErrors = append(body.SubErrors, DeclaredSubError{Code: se.Code, Message: se.Message})
	}
	return body
}

// errorMessage renders the current error state into the message. It never
// fails; without an error state it does nothing.
func (r *run) errorMessage() {
	perr := r.ec.Err
	if perr == nil {
		return
	}
	status := r.errorStatus()

	var payload any
	if schema := r.declaredErrorSchema(status); schema != nil {
		payload = NewDeclaredErrorBody(schema)
	} else {
		payload = NewDefaultErrorBody(status, perr, r.ec.Frontend)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("encoding error message", "error", err)
		return
	}

	msg := &r.ec.Message
	msg.Body = data
	if msg.Headers == nil {
		msg.Headers = http.Header{}
	}
	msg.Headers.Set("Content-Type", "application/json")
	msg.Headers.Del("Content-Length")
	msg.StatusCode = status
	msg.StatusReason = http.StatusText(status)
}

// errorStatus picks the status the error message is rendered for.
func (r *run) errorStatus() int {
	if r.ec.Message.StatusCode >= http.StatusBadRequest {
		return r.ec.Message.StatusCode
	}
	if r.ec.Err.StatusCode >= http.StatusBadRequest {
		return r.ec.Err.StatusCode
	}
	return r.ec.Err.HTTPStatus()
}

func (r *run) declaredErrorSchema(status int) *ast.ErrorSchema {
	m := r.def.Method(r.ec.Operation.Path, r.ec.Operation.Verb)
	if m == nil {
		return nil
	}
	resp := m.Response(status)
	if resp == nil {
		return nil
	}
	return resp.ErrorSchema()
}
