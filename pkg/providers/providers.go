package providers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/germanamz/keyprobe/pkg/config"
	"github.com/germanamz/keyprobe/pkg/providers/openai"
	"github.com/germanamz/keyprobe/pkg/providers/openaisdk"
	"github.com/germanamz/keyprobe/pkg/providers/provider"
)

// HeaderRequestID carries the client-generated ID of a probe run. OpenAI
// echoes it in its logs, which lets a run be traced on the vendor side.
const HeaderRequestID = "X-Client-Request-Id"

// NewRequestID returns a fresh random request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// New builds the client selected by cfg.Backend. A nil httpClient leaves the
// backend's default in place. requestID is sent with every call when set.
func New(cfg config.Config, httpClient *http.Client, requestID string) (provider.Client, error) {
	headers := map[string]string{}
	if requestID != "" {
		headers[HeaderRequestID] = requestID
	}

	switch cfg.Backend {
	case config.BackendHTTP, "":
		a := openai.New(cfg.BaseURL, cfg.APIKey)
		a.Client = httpClient
		a.Headers = headers
		return a, nil

	case config.BackendSDK:
		return openaisdk.New(openaisdk.Options{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			HTTPClient: httpClient,
			Headers:    headers,
		}), nil

	default:
		return nil, fmt.Errorf("providers: unknown backend %q", cfg.Backend)
	}
}
