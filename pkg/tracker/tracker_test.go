package tracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://tracker.example.org:2710/announce?passkey=x", "example.org"},
		{"http://announce.sub.example.co.uk/announce", "example.co.uk"},
		{"udp://tracker.example.net:6969", "example.net"},
		{"tracker.example.org", "example.org"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDomain(tt.url), "url %q", tt.url)
	}
}

func TestInitAndGet(t *testing.T) {
	Init(Config{Gazelle: map[string]GazelleConfig{
		"red": {URL: "https://redacted.sh", Key: "k", Domains: []string{"flacsfor.me"}},
		// missing key: skipped
		"ops": {URL: "https://orpheus.network", Domains: []string{"opsfet.ch"}},
	}})
	t.Cleanup(func() { Init(Config{}) })

	assert.Equal(t, 1, Loaded())
	assert.NotNil(t, Get("flacsfor.me"))
	assert.Nil(t, Get("opsfet.ch"))
	assert.Nil(t, Get("unknown.example"))
}

func TestGazelleIsUnregistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ajax.php", r.URL.Path)
		assert.Equal(t, "torrent", r.URL.Query().Get("action"))
		assert.Equal(t, "token k", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("hash") {
		case "GONE":
			w.Write([]byte(`{"status":"failure","error":"bad parameters"}`))
		default:
			w.Write([]byte(`{"status":"success"}`))
		}
	}))
	t.Cleanup(srv.Close)

	g := NewGazelle("red", GazelleConfig{URL: srv.URL, Key: "k", Domains: []string{"example.org"}})

	unregistered, err := g.IsUnregistered(context.Background(), "gone")
	require.NoError(t, err)
	assert.True(t, unregistered, "hash is uppercased before the lookup")

	unregistered, err = g.IsUnregistered(context.Background(), "live")
	require.NoError(t, err)
	assert.False(t, unregistered)
}

func TestGazelleCheck(t *testing.T) {
	g := NewGazelle("red", GazelleConfig{Domains: []string{"flacsfor.me"}})

	assert.True(t, g.Check("flacsfor.me"))
	assert.True(t, g.Check("tracker.FLACSFOR.ME"))
	assert.False(t, g.Check("example.org"))
}
