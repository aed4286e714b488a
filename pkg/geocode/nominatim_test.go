package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hrm-case-api/pkg/config"
)

func newTestClient(url string, retries int) *Client {
	return NewClient(config.GeocoderConfig{URL: url, UserAgent: "test-agent", Timeout: time.Second, Retries: retries}, nil)
}

func TestLookupParsesFirstHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tripoli", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"34.43","lon":"35.84","display_name":"Tripoli, North Governorate, Lebanon"}]`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 0).Lookup(context.Background(), " Tripoli ")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Lebanon", res.Country)
	assert.Equal(t, "LB", res.CountryCode)
	assert.InDelta(t, 34.43, res.Latitude, 1e-9)
	assert.InDelta(t, 35.84, res.Longitude, 1e-9)
}

func TestLookupNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 0).Lookup(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = newTestClient(srv.URL, 0).Lookup(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestLookupRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2","display_name":"Somewhere, Yemen"}]`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 2).Lookup(context.Background(), "Sanaa")
	require.NoError(t, err)
	assert.Equal(t, "Yemen", res.Country)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLookupDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Lookup(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCountryFromAddress(t *testing.T) {
	assert.Equal(t, "Syria", CountryFromAddress("Damascus, Syria"))
	assert.Equal(t, "Lebanon", CountryFromAddress("Lebanon"))
	assert.Equal(t, "", CountryFromAddress(""))
}

func TestLookupCachesHits(t *testing.T) {
	defer gock.Off()
	gock.New("https://geo.example.org").
		Get("/search").
		MatchParam("q", "Amman").
		Reply(200).
		BodyString(`[{"lat":"31.95","lon":"35.93","display_name":"Amman, Amman Governorate, Jordan"}]`)

	client := newTestClient("https://geo.example.org/search", 0)
	first, err := client.Lookup(context.Background(), "Amman")
	require.NoError(t, err)
	second, err := client.Lookup(context.Background(), "amman")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "JO", second.CountryCode)
	assert.True(t, gock.IsDone())
	assert.False(t, gock.HasUnmatchedRequest())
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "LB", CountryCode("Lebanon"))
	assert.Equal(t, "JO", CountryCode("JO"))
	assert.Equal(t, "", CountryCode("Atlantis"))
	assert.Equal(t, "", CountryCode(" "))
}
