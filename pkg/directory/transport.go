package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tomnomnom/linkheader"

	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
)

// HTTPDoer is the subset of *http.Client the transport depends on, so tests
// can inject a fake instead of monkey-patching a global (per the "no global
// mutable state in tests" re-architecture note).
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// transport is the single dynamic-dispatch-free request helper the client
// builds every operation on top of, replacing the three near-identical
// get/post/delete helpers of the original with one method per the
// "Dynamic dispatch over HTTP verbs" re-architecture note.
type transport struct {
	baseURL string
	key     string
	secret  string
	client  HTTPDoer
	log     *logrus.Entry
}

func newTransport(baseURL, key, secret string, client HTTPDoer, log *logrus.Entry) *transport {
	return &transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     key,
		secret:  secret,
		client:  client,
		log:     log,
	}
}

// request issues a single HTTP call and decodes the JSON response body, if
// any, into a map. path is appended to the base URL verbatim — query string
// arguments are the caller's responsibility to have assembled, matching the
// external API's own quirky expectation that they are not percent-encoded.
func (t *transport) request(ctx context.Context, method, path string, body interface{}, op string) (map[string]interface{}, http.Header, error) {
	url := t.baseURL + path

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.BadArgument, op, err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.TransportError, op, err)
	}
	req.SetBasicAuth(t.key, t.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	t.log.WithFields(logrus.Fields{"method": method, "url": url, "op": op}).Debug("sending rancher request")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.TransportError, op, err)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.TransportError, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, pkgerrors.WithResponse(pkgerrors.TransportError, op, url, string(raw))
	}

	if len(raw) == 0 {
		return map[string]interface{}{}, resp.Header, nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, nil, pkgerrors.WithResponse(pkgerrors.ShapeError, op, url, string(raw))
	}

	t.log.WithFields(logrus.Fields{"url": url, "op": op}).Debug("rancher request returned payload")
	return decoded, resp.Header, nil
}

// list performs a GET against path, expecting the response envelope's "data"
// key to carry a list, and follows rel="next" Link header pagination until
// the full result set has been collected. Order is preserved across pages
// so the "first element wins" tie-break is evaluated over the full set.
func (t *transport) list(ctx context.Context, path, op string) ([]interface{}, error) {
	var all []interface{}
	next := path

	for next != "" {
		envelope, header, err := t.request(ctx, http.MethodGet, next, nil, op)
		if err != nil {
			return nil, err
		}

		data, ok := envelope["data"].([]interface{})
		if !ok {
			return nil, pkgerrors.WithResponse(pkgerrors.ShapeError, op, t.baseURL+next, "response envelope did not carry a \"data\" list")
		}
		all = append(all, data...)

		next = t.nextPage(header)
	}

	return all, nil
}

func (t *transport) nextPage(header http.Header) string {
	raw := header.Get("Link")
	if raw == "" {
		return ""
	}
	for _, link := range linkheader.Parse(raw) {
		if link.Rel == "next" {
			return strings.TrimPrefix(link.URL, t.baseURL)
		}
	}
	return ""
}
