package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/scanner"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Новини</title>
  <item>
    <title>Първа от емисията</title>
    <link>https://news.example.bg/1</link>
    <pubDate>Tue, 10 Mar 2026 08:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Относителна връзка</title>
    <link>/2</link>
  </item>
  <item>
    <title></title>
    <link>https://news.example.bg/3</link>
  </item>
  <item>
    <title>Четвърта</title>
    <link>https://news.example.bg/4</link>
  </item>
</channel>
</rss>`

func TestRSSScanner(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	s := NewRSSScanner(srv.Client(), testDates())
	assert.Equal(t, "rss", s.Name())

	articles, err := s.Scan(context.Background(), scanner.Request{
		SiteName: "Example",
		BaseURL:  srv.URL,
		Limit:    2,
		Options:  map[string]string{"feed": srv.URL + "/feed.xml"},
	})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Първа от емисията", first.Title)
	assert.Equal(t, "Example", first.Source)
	assertInstant(t, time.Date(2026, time.March, 10, 10, 0, 0, 0, sofia), first.Published, "pubDate")
	assert.Equal(t, sofia, first.Published.Location(), "published not in civil zone")

	second := articles[1]
	assert.Equal(t, srv.URL+"/2", second.Link)
	assertInstant(t, testNow, second.Published, "missing pubDate falls back to now")
}

func TestRSSScannerBadFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	_, err := NewRSSScanner(srv.Client(), testDates()).Scan(context.Background(), scanner.Request{
		SiteName: "Example",
		BaseURL:  srv.URL,
	})
	assert.Error(t, err)
}
