// Package validator runs static checks over parsed definitions.
//
// The parser only rejects documents the gateway cannot represent. The
// validator goes further and reports values the engine would reject at
// request time (bad header names, unparsable target URLs, out-of-range status
// codes), unknown policies and catch names, and operation switches whose
// cases reference undeclared or shadowed operations.
//
//	report := validator.NewValidator().Validate(def)
//	if err := report.Err(); err != nil {
//	    return err
//	}
//	for _, w := range report.Warnings.Errors {
//	    log.Println(w)
//	}
//
// SwaggerLinter additionally checks the Swagger 2.0 body through kin-openapi.
package validator
