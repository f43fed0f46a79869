// Package proxy holds the request and response plumbing shared by the
// gateway handlers: reading an inbound request into the engine's model,
// writing the final message back, and rendering gateway errors in the
// default API error format:
//
//	{"httpCode":"404","httpMessage":"Not Found","moreInformation":"No resources match requested URI"}
package proxy
