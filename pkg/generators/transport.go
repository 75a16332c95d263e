package generators

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// debugTransport logs request bodies before sending them.
type debugTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err == nil {
			body = pretty.Bytes()
		}
		t.logger.Debug("generators: request", "url", req.URL.String(), "body", string(body))
	}
	return t.base.RoundTrip(req)
}

// httpClient returns the client to hand to an SDK, wrapped with request
// logging when debug logging is on. It returns nil when the SDK default
// should be kept.
func (o *Options) httpClient() *http.Client {
	log := o.logger()
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return o.HTTPClient
	}
	base := http.DefaultTransport
	client := &http.Client{}
	if o.HTTPClient != nil {
		*client = *o.HTTPClient
		if o.HTTPClient.Transport != nil {
			base = o.HTTPClient.Transport
		}
	}
	client.Transport = &debugTransport{base: base, logger: log}
	return client
}
