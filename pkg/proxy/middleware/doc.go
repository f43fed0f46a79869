// Package middleware provides the HTTP middleware wrapped around the
// gateway and operational endpoints.
//
// # Middleware Chain
//
// The server builds the chain with Chain, outermost first:
//
//	handler = Chain(mux,
//	    Recovery(logger),
//	    RequestID,
//	    tracing.Middleware,
//	    AccessLog(logger, redactor, collector),
//	    BodyLimit(maxBodyBytes),
//	)
//
// Recovery is outermost so a panic anywhere below still yields a response.
// RequestID runs before AccessLog so every access log line carries the
// request_id attribute through the logging context handler.
//
// # Request ID
//
// A client supplied X-Request-ID is kept when it is at most 128 printable
// ASCII characters; otherwise a UUID v4 is generated:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// # Access Log
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/orders/42",
//	  "status": 200,
//	  "bytes": 512,
//	  "latency_ms": 12,
//	  "request_id": "550e8400-..."
//	}
//
// At debug level the request headers are logged with Authorization, Cookie
// and other configured keys redacted.
package middleware
