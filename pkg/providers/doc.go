// Package providers builds the remote client the probe talks to.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/keyprobe/pkg/providers/provider]: the Client contract and result types
//   - [github.com/germanamz/keyprobe/pkg/providers/openai]: JSON-over-HTTP client built on modeladapter
//   - [github.com/germanamz/keyprobe/pkg/providers/openaisdk]: client built on the official openai-go SDK
//
// [New] selects one of them from the configured backend.
package providers
