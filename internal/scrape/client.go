package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/i474232898/surfspots/internal/common"
)

const userAgent = "SurfSpots/1.0 (+news page)"

// Client downloads and parses the rankings and events pages.
type Client struct {
	httpClient  *http.Client
	rankingsURL string
	eventsURL   string
}

// NewClient creates a scraper for the two page URLs.
func NewClient(httpClient *http.Client, rankingsURL, eventsURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		rankingsURL: rankingsURL,
		eventsURL:   eventsURL,
	}
}

// Fetch scrapes both pages. Either page failing fails the whole snapshot.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	err := c.get(ctx, c.rankingsURL, func(r io.Reader) (err error) {
		snap.Rankings, err = ParseRankings(r)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("rankings: %w", err)
	}

	err = c.get(ctx, c.eventsURL, func(r io.Reader) (err error) {
		snap.Events, err = ParseEvents(r)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("events: %w", err)
	}

	return snap, nil
}

func (c *Client) get(ctx context.Context, url string, parse func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return parse(resp.Body)
}

// ParseRankings zips the rank, name, country and points columns by index.
func ParseRankings(r io.Reader) ([]Ranking, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	ranks := texts(doc, "span.athlete-rank")
	names := texts(doc, "a.athlete-name")
	countries := texts(doc, "span.athlete-country-name")
	points := texts(doc, "span.athlete-points")

	n := minLen(ranks, names, countries, points)
	out := make([]Ranking, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Ranking{Rank: ranks[i], Name: names[i], Country: countries[i], Points: points[i]})
	}
	return out, nil
}

// ParseEvents zips the schedule columns by index and keeps only upcoming
// and tentative events.
func ParseEvents(r io.Reader) ([]Event, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	statuses := texts(doc, "span.event-status")
	dates := texts(doc, "td.event-date-range")
	names := texts(doc, "a.event-schedule-details__event-name")
	locations := texts(doc, "span.event-schedule-details__location")
	tours := texts(doc, "span.event-tour-details__tour-name")

	var out []Event
	for i, status := range statuses {
		if !common.HasAny(status, "Upcoming", "Tentative") {
			continue
		}
		out = append(out, Event{
			Status:   status,
			Dates:    at(dates, i),
			Name:     at(names, i),
			Location: at(locations, i),
			Tour:     at(tours, i),
		})
	}
	return out, nil
}

func texts(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, common.CollapseSpace(s.Text()))
	})
	return out
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func minLen(cols ...[]string) int {
	n := -1
	for _, c := range cols {
		if n < 0 || len(c) < n {
			n = len(c)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
