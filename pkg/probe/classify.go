package probe

import (
	"errors"
	"net/http"
	"strings"

	"github.com/germanamz/keyprobe/pkg/modeladapter"
)

// Kind is the failure category of a probe error.
type Kind int

const (
	// KindUnclassified covers network failures, outages and anything else
	// that is neither a quota nor a credential problem.
	KindUnclassified Kind = iota
	// KindQuota means the credential was accepted but the account has no
	// usage allowance left.
	KindQuota
	// KindInvalidCredential means the credential itself was rejected.
	KindInvalidCredential
)

func (k Kind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindInvalidCredential:
		return "invalid_credential"
	default:
		return "unclassified"
	}
}

// OpenAI error codes that decide a category on their own.
const (
	codeInsufficientQuota = "insufficient_quota"
	codeInvalidAPIKey     = "invalid_api_key"
)

// Classify returns the failure category of err. The HTTP status and API
// error code are used when the error carries them; otherwise the message
// text is inspected. Quota is checked before credential in both cases.
func Classify(err error) Kind {
	if err == nil {
		return KindUnclassified
	}

	if status, code, ok := statusOf(err); ok {
		return classifyStatus(status, code)
	}

	return classifyMessage(err.Error())
}

func statusOf(err error) (status int, code string, ok bool) {
	var rle *modeladapter.RateLimitError
	if errors.As(err, &rle) {
		return http.StatusTooManyRequests, rle.Code, true
	}

	var se *modeladapter.StatusError
	if errors.As(err, &se) {
		return se.StatusCode, se.Code, true
	}

	return 0, "", false
}

func classifyStatus(status int, code string) Kind {
	switch {
	case status == http.StatusTooManyRequests || code == codeInsufficientQuota:
		return KindQuota
	case status == http.StatusUnauthorized || code == codeInvalidAPIKey:
		return KindInvalidCredential
	default:
		return KindUnclassified
	}
}

func classifyMessage(msg string) Kind {
	switch {
	case strings.Contains(msg, codeInsufficientQuota) || strings.Contains(msg, "429"):
		return KindQuota
	case strings.Contains(msg, "401") || strings.Contains(strings.ToLower(msg), "invalid"):
		return KindInvalidCredential
	default:
		return KindUnclassified
	}
}
