package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

const bodyPrefixLimit = 512

// postJSON issues one POST with a JSON body and returns the live response
// on any 2xx status. On a non-2xx status, or a network/marshal failure, it
// returns a *Error carrying the status code and the first bytes of the
// response body, per spec.md §4.3.
func postJSON(ctx context.Context, client *http.Client, providerName, url string, headers map[string]string, body any) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, causeError(providerName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, causeError(providerName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, causeError(providerName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		prefix, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPrefixLimit))
		return nil, statusError(providerName, resp.StatusCode, string(prefix))
	}

	return resp, nil
}

// getJSON issues one GET and decodes a 2xx JSON body into out.
func getJSON(ctx context.Context, client *http.Client, providerName, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return causeError(providerName, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return causeError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		prefix, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPrefixLimit))
		return statusError(providerName, resp.StatusCode, string(prefix))
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return causeError(providerName, err)
	}
	return nil
}

// decodeJSONBody fully decodes resp.Body into out and closes it.
func decodeJSONBody(providerName string, resp *http.Response, out any) error {
	defer resp.Body.Close()
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return causeError(providerName, err)
	}
	return nil
}
