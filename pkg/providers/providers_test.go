package providers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/keyprobe/pkg/config"
	"github.com/germanamz/keyprobe/pkg/providers"
	"github.com/germanamz/keyprobe/pkg/providers/openai"
	"github.com/germanamz/keyprobe/pkg/providers/openaisdk"
)

func TestNewRequestID(t *testing.T) {
	a := providers.NewRequestID()
	b := providers.NewRequestID()

	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = "sk-test"

	c, err := providers.New(cfg, nil, "")
	require.NoError(t, err)
	assert.IsType(t, &openai.Adapter{}, c)

	cfg.Backend = config.BackendSDK
	c, err = providers.New(cfg, nil, "")
	require.NoError(t, err)
	assert.IsType(t, &openaisdk.Client{}, c)

	cfg.Backend = "carrier-pigeon"
	_, err = providers.New(cfg, nil, "")
	assert.ErrorContains(t, err, "unknown backend")
}

func TestNew_SendsRequestIDOnBothBackends(t *testing.T) {
	for _, backend := range []string{config.BackendHTTP, config.BackendSDK} {
		t.Run(backend, func(t *testing.T) {
			var gotID, gotAuth string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID = r.Header.Get(providers.HeaderRequestID)
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"}]}`))
			}))
			defer srv.Close()

			cfg := config.Default()
			cfg.APIKey = "sk-test"
			cfg.BaseURL = srv.URL
			cfg.Backend = backend

			c, err := providers.New(cfg, srv.Client(), "run-123")
			require.NoError(t, err)

			ids, err := c.ListModels(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"gpt-4o"}, ids)
			assert.Equal(t, "run-123", gotID)
			assert.Equal(t, "Bearer sk-test", gotAuth)
		})
	}
}
