package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rankingsHTML = `<html><body><table>
<tr>
  <td><span class="athlete-rank">1</span></td>
  <td><a class="athlete-name" href="/a/1">Caroline  Marks</a></td>
  <td><span class="athlete-country-name">United States</span></td>
  <td><span class="athlete-points">48,930</span></td>
</tr>
<tr>
  <td><span class="athlete-rank">2</span></td>
  <td><a class="athlete-name" href="/a/2">
      Tatiana Weston-Webb
  </a></td>
  <td><span class="athlete-country-name">Brazil</span></td>
  <td><span class="athlete-points">40,120</span></td>
</tr>
<tr>
  <td><span class="athlete-rank">3</span></td>
  <td><a class="athlete-name" href="/a/3">No Points Yet</a></td>
</tr>
</table></body></html>`

const eventsHTML = `<html><body><table>
<tr>
  <td><span class="event-status">Completed</span></td>
  <td class="event-date-range">Jan 29 - Feb 10</td>
  <td><a class="event-schedule-details__event-name">Lexus Pipe Pro</a>
      <span class="event-schedule-details__location">Banzai Pipeline, Oahu</span></td>
  <td><span class="event-tour-details__tour-name">Championship Tour</span></td>
</tr>
<tr>
  <td><span class="event-status">Upcoming</span></td>
  <td class="event-date-range">Mar 18 - Mar 28</td>
  <td><a class="event-schedule-details__event-name">Rip Curl Pro Portugal</a>
      <span class="event-schedule-details__location">Supertubos, Peniche</span></td>
  <td><span class="event-tour-details__tour-name">Championship Tour</span></td>
</tr>
<tr>
  <td><span class="event-status"> Tentative </span></td>
  <td class="event-date-range">Jul 1 - Jul 10</td>
  <td><a class="event-schedule-details__event-name">Tahiti Pro</a>
      <span class="event-schedule-details__location">Teahupo'o</span></td>
  <td><span class="event-tour-details__tour-name">Championship Tour</span></td>
</tr>
</table></body></html>`

func TestParseRankings(t *testing.T) {
	got, err := ParseRankings(strings.NewReader(rankingsHTML))
	require.NoError(t, err)

	assert.Equal(t, []Ranking{
		{Rank: "1", Name: "Caroline Marks", Country: "United States", Points: "48,930"},
		{Rank: "2", Name: "Tatiana Weston-Webb", Country: "Brazil", Points: "40,120"},
	}, got)
}

func TestParseEvents(t *testing.T) {
	got, err := ParseEvents(strings.NewReader(eventsHTML))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Event{
		Dates:    "Mar 18 - Mar 28",
		Name:     "Rip Curl Pro Portugal",
		Location: "Supertubos, Peniche",
		Tour:     "Championship Tour",
		Status:   "Upcoming",
	}, got[0])
	assert.Equal(t, "Tentative", got[1].Status)
	assert.Equal(t, "Teahupo'o", got[1].Location)
}

func TestParseEmptyPages(t *testing.T) {
	r, err := ParseRankings(strings.NewReader("<html></html>"))
	require.NoError(t, err)
	assert.Empty(t, r)

	e, err := ParseEvents(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, e)
}

func TestClientFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rankings", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(rankingsHTML))
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(eventsHTML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/rankings", srv.URL+"/events")
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Rankings, 2)
	assert.Len(t, snap.Events, 2)
}

func TestClientFetchFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rankings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rankingsHTML))
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/rankings", srv.URL+"/events")
	_, err := c.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events")
	assert.Contains(t, err.Error(), "503")
}
