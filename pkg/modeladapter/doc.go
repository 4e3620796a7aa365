// Package modeladapter provides the embeddable HTTP base used by remote model
// clients.
//
// It contains:
//   - [ModelAdapter], with request building, bearer auth, custom headers and JSON helpers
//   - typed HTTP failures ([StatusError], [RateLimitError]) decoded from the
//     OpenAI error envelope so callers can branch on status codes
//   - [RateLimitInfo] parsed from x-ratelimit-* response headers
//
// This package contains no vendor-specific request types. Concrete clients
// live in separate packages that import modeladapter.
package modeladapter
