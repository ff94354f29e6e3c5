package client

import (
	"bytes"
	"fmt"

	"github.com/snipdev/snip-widget/api"
)

// statusError classifies a non-2xx response: 4xx is the caller's fault, the
// rest is the backend's.
func statusError(op string, status int, body []byte) error {
	typ := api.ErrorTypeServer
	if status >= 400 && status < 500 {
		typ = api.ErrorTypeUser
	}
	return &api.Error{
		Description: op,
		Type:        typ,
		Err:         fmt.Errorf("status %d: %s", status, bytes.TrimSpace(body)),
	}
}
