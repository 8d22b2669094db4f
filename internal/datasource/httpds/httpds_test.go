package httpds

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

// roundTripFunc adapts a function to http.RoundTripper so tests can stub
// responses without a listener.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestRemote_Open(t *testing.T) {
	var gotURL, gotHeader string
	src := NewRemote("http://example.test/tx.csv", Config{
		Headers: http.Header{"Authorization": []string{"Bearer x"}},
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			gotURL = req.URL.String()
			gotHeader = req.Header.Get("Authorization")
			return fakeResponse(200, "date,prod_id\n"), nil
		}),
	})

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	b, _ := io.ReadAll(rc)
	if string(b) != "date,prod_id\n" {
		t.Errorf("body = %q", b)
	}
	if gotURL != "http://example.test/tx.csv" {
		t.Errorf("url = %q", gotURL)
	}
	if gotHeader != "Bearer x" {
		t.Errorf("header = %q", gotHeader)
	}
}

func TestRemote_NonOKStatus(t *testing.T) {
	for _, status := range []int{404, 500, 503} {
		src := NewRemote("http://example.test/x", Config{
			Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return fakeResponse(status, "nope"), nil
			}),
		})
		if _, err := src.Open(context.Background()); err == nil {
			t.Errorf("status %d: expected error", status)
		}
	}
}

func TestRemote_Name(t *testing.T) {
	if got := NewRemote("https://h/p.csv", Config{}).Name(); got != "https://h/p.csv" {
		t.Errorf("Name() = %q", got)
	}
}
