// http_fetcher.go implements ot/adaptor/registry.Fetcher over plain HTTP
// GET + JSON, the transport resolveSource's remoteRegistryRoot wires up
// for a "--remote http(s)://..." data source. registry.Registry itself
// stays transport-agnostic; this file is the one concrete binding.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentic-research/otquery/api"
	"github.com/agentic-research/otquery/ot/adaptor/registry"
)

type httpFetcher struct {
	base string
	hc   http.Client
}

// directory fetches GET {base}/objects, the static tuple list
// registry.Registry.Directory walks.
func (f *httpFetcher) directory() ([]registry.DirectoryEntry, error) {
	var entries []api.DirectoryEntry
	if err := f.getJSON("/objects", &entries); err != nil {
		return nil, fmt.Errorf("otq: fetch directory: %w", err)
	}
	out := make([]registry.DirectoryEntry, len(entries))
	for i, e := range entries {
		out[i] = registry.DirectoryEntry(e)
	}
	return out, nil
}

// FetchInfo implements registry.Fetcher by GETting
// {base}/objects/{id}/info.
func (f *httpFetcher) FetchInfo(id uint32) (map[string]string, []uint32, error) {
	var resp api.InfoResponse
	if err := f.getJSON(fmt.Sprintf("/objects/%d/info", id), &resp); err != nil {
		return nil, nil, fmt.Errorf("otq: fetch info for object %d: %w", id, err)
	}
	return resp.Info, resp.ParamIDs, nil
}

// FetchParam implements registry.Fetcher by GETting
// {base}/objects/{id}/params/{paramID}.
func (f *httpFetcher) FetchParam(id, paramID uint32) (map[string]string, error) {
	var values map[string]string
	if err := f.getJSON(fmt.Sprintf("/objects/%d/params/%d", id, paramID), &values); err != nil {
		return nil, fmt.Errorf("otq: fetch param %d for object %d: %w", paramID, id, err)
	}
	return values, nil
}

func (f *httpFetcher) getJSON(path string, out any) error {
	resp, err := f.hc.Get(f.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
