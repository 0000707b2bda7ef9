package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <title>Gopher Channel</title>
 <entry>
  <id>yt:video:AAA</id>
  <yt:videoId>AAA</yt:videoId>
  <title>First</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=AAA"/>
  <published>2024-05-01T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:BBB</id>
  <title>Second</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=BBB"/>
  <published>2024-04-01T10:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:CCC</id>
  <title>Third</title>
  <published>2024-03-01T10:00:00+00:00</published>
 </entry>
</feed>`

func TestChannelVideoIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("channel_id"); got != "UC123" {
			t.Errorf("unexpected channel_id %q", got)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(channelFeed))
	}))
	defer srv.Close()

	f := NewFeedClient(srv.URL, time.Second)
	ids, err := f.ChannelVideoIDs(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"AAA", "BBB", "CCC"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestChannelVideoIDsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFeedClient(srv.URL, time.Second)
	_, err := f.ChannelVideoIDs(context.Background(), "missing")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Op != "feed" || pe.Status != http.StatusNotFound {
		t.Errorf("unexpected error fields: %+v", pe)
	}
}
