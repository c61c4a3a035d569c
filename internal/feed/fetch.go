package feed

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// userAgent identifies Brief to feed servers.
const userAgent = "Brief/0.1 (https://github.com/abelbrown/brief)"

// LoadFile reads a feed document from disk.
func LoadFile(path string) (Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Feed{}, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	defer f.Close()
	return Decode(f)
}

// FetchHTTP retrieves a feed document over HTTP. The function respects
// context cancellation and will return early if the context is cancelled.
func FetchHTTP(ctx context.Context, client *http.Client, url string) (Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Feed{}, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return Feed{}, fmt.Errorf("%w: fetch: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Feed{}, fmt.Errorf("%w: HTTP %d %s", ErrUnavailable, resp.StatusCode, resp.Status)
	}

	return Decode(resp.Body)
}
