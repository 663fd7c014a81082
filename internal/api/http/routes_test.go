package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/blog"
	"github.com/i474232898/surfspots/internal/countries"
	"github.com/i474232898/surfspots/internal/database"
	"github.com/i474232898/surfspots/internal/observability"
	"github.com/i474232898/surfspots/internal/scrape"
	"github.com/i474232898/surfspots/internal/store"
	"github.com/i474232898/surfspots/internal/weather"
)

type fakeForecaster struct {
	report *weather.Report
	err    error
	places []string
}

func (f *fakeForecaster) Forecast(_ context.Context, place string) (*weather.Report, error) {
	f.places = append(f.places, place)
	return f.report, f.err
}

type fakeNews struct {
	view scrape.View
	err  error
}

func (f *fakeNews) Get(context.Context) (scrape.View, error) {
	return f.view, f.err
}

type testEnv struct {
	app      *fiber.App
	blog     *blog.Service
	repo     *blog.Repository
	images   *store.MemoryStore
	forecast *fakeForecaster
	news     *fakeNews
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "http.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db, blog.Models()...))

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	repo := blog.NewRepository(db)
	svc := blog.NewService(repo, zerolog.Nop(),
		blog.WithClock(clock),
		blog.WithBcryptCost(bcrypt.MinCost),
		blog.WithAdmins(func(name string) bool { return name == "kelly" }),
	)
	images := store.NewMemoryStore("/charts/", 16, time.Hour, clock, metrics)

	views, err := NewViews()
	require.NoError(t, err)

	env := &testEnv{
		app:      NewApp(views, zerolog.Nop()),
		blog:     svc,
		repo:     repo,
		images:   images,
		forecast: &fakeForecaster{},
		news:     &fakeNews{},
	}
	require.NoError(t, RegisterRoutes(env.app, Deps{
		Blog:     svc,
		Atlas:    blog.NewAtlas(repo, countries.Default(), images, zerolog.Nop(), metrics),
		Forecast: env.forecast,
		News:     env.news,
		Charts:   images,
		Sessions: session.New(),
		Registry: countries.Default(),
		Clock:    clock,
		Location: time.UTC,
		Logger:   zerolog.Nop(),
	}))
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies []*http.Cookie) (*http.Response, string) {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) get(t *testing.T, path string, cookies []*http.Cookie) (*http.Response, string) {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, cookies []*http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookies)
}

// signUp registers name through the landing page and returns the session
// cookies.
func (e *testEnv) signUp(t *testing.T, name string) []*http.Cookie {
	t.Helper()
	resp, _ := e.post(t, "/", url.Values{"form": {"register"}, "name": {name}, "password": {"pw"}}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies())
	return resp.Cookies()
}

func spotForm(country string) url.Values {
	return url.Values{
		"name_beach":   {"Uluwatu"},
		"city":         {"Pecatu"},
		"country":      {country},
		"continent":    {"Asia"},
		"maps_url":     {"https://maps.google.com/?q=uluwatu"},
		"access":       {"Stairs through the cave"},
		"clima":        {"Tropical"},
		"wave_quality": {"World class left"},
		"infos":        {"Reef, bring booties"},
		"img_url":      {"https://example.com/uluwatu.jpg"},
	}
}

func (e *testEnv) seedSpot(t *testing.T, country string) *blog.BlogPost {
	t.Helper()
	admin, err := e.blog.Login(context.Background(), "kelly", "pw")
	if err != nil {
		admin, err = e.blog.Register(context.Background(), "kelly", "pw")
		require.NoError(t, err)
	}
	in := blog.SpotInput{
		NameBeach: "Supertubos", City: "Peniche", Country: country, Continent: "Europe",
		MapsURL: "https://maps.google.com/?q=supertubos", Access: "Beach parking",
		Clima: "Windy", WaveQuality: "Heavy beach break", Infos: "Summer crowds",
		ImgURL: "https://example.com/supertubos.jpg",
	}
	p, err := e.blog.CreateSpot(context.Background(), admin, in)
	require.NoError(t, err)
	return p
}

func (e *testEnv) countSpots(t *testing.T) int {
	t.Helper()
	posts, err := e.repo.ListPosts(context.Background(), "", 0)
	require.NoError(t, err)
	return len(posts)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/health", nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
	assert.Empty(t, resp.Cookies())
}

func TestStaticPages(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/about", "/lifestyle", "/flat_days", "/pro_tips"} {
		t.Run(path, func(t *testing.T) {
			resp, body := env.get(t, path, nil)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, body, "<nav>")
		})
	}
}

func TestLandingShowsFeaturedSpots(t *testing.T) {
	env := newTestEnv(t)
	env.seedSpot(t, "Portugal")

	resp, body := env.get(t, "/", nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Supertubos")
	assert.Contains(t, body, `name="form" value="register"`)
}

func TestRegisterLogsInAndFlashes(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.signUp(t, "gabriel")

	_, body := env.get(t, "/", cookies)
	assert.Contains(t, body, blog.MsgRegistered)
	assert.Contains(t, body, "gabriel")
	assert.Contains(t, body, "/logout")

	// the flash is shown once
	_, body = env.get(t, "/", cookies)
	assert.NotContains(t, body, blog.MsgRegistered)
}

func TestRegisterDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "gabriel")

	resp, _ := env.post(t, "/", url.Values{"form": {"register"}, "name": {"gabriel"}, "password": {"x"}}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	_, body := env.get(t, "/", resp.Cookies())
	assert.Contains(t, body, blog.MsgDuplicateName)

	n, err := env.repo.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "carissa")

	tests := []struct {
		name, user, password, want string
	}{
		{"unknown user", "nobody", "pw", "please sign in first"},
		{"wrong password", "carissa", "nope", blog.MsgWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := env.post(t, "/", url.Values{"form": {"login"}, "name": {tt.user}, "password": {tt.password}}, nil)
			require.Equal(t, fiber.StatusFound, resp.StatusCode)

			_, body := env.get(t, "/", resp.Cookies())
			assert.Contains(t, body, tt.want)
			assert.NotContains(t, body, "/logout")
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.signUp(t, "gabriel")

	resp, _ := env.get(t, "/logout", cookies)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	_, body := env.get(t, "/", cookies)
	assert.NotContains(t, body, "/logout")
}

func TestManageSpotsForbidden(t *testing.T) {
	env := newTestEnv(t)
	spot := env.seedSpot(t, "Portugal")
	member := env.signUp(t, "gabriel")

	for name, cookies := range map[string][]*http.Cookie{"anonymous": nil, "member": member} {
		t.Run(name, func(t *testing.T) {
			resp, _ := env.post(t, "/new_spot", spotForm("Indonesia"), cookies)
			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

			resp, _ = env.post(t, "/delete/1", nil, cookies)
			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

			resp, _ = env.get(t, "/edit_post/1", cookies)
			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

			assert.Equal(t, 1, env.countSpots(t))
			_, err := env.blog.Spot(context.Background(), spot.ID)
			assert.NoError(t, err)
		})
	}
}

func TestAdminCreatesSpot(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signUp(t, "kelly")

	resp, body := env.get(t, "/new_spot", admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="name_beach"`)

	resp, _ = env.post(t, "/new_spot", spotForm("Indonesia"), admin)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/best_spots", resp.Header.Get("Location"))

	resp, body = env.get(t, "/best_spots", admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Uluwatu")
	assert.Contains(t, body, "Pecatu, Indonesia (Asia)")
	assert.Contains(t, body, "IDN")
	assert.Contains(t, body, `src="/charts/`)
}

func TestAdminCreateSpotInvalid(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signUp(t, "kelly")

	form := spotForm("Indonesia")
	form.Set("img_url", "not a url")
	resp, body := env.post(t, "/new_spot", form, admin)

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "image link")
	assert.Contains(t, body, `value="Uluwatu"`)
	assert.Zero(t, env.countSpots(t))
}

func TestAdminEditsAndDeletesSpot(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signUp(t, "kelly")
	spot := env.seedSpot(t, "Portugal")
	path := "/edit_post/" + itoa(spot.ID)

	resp, body := env.get(t, path, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="Supertubos"`)

	form := spotForm("Portugal")
	form.Set("name_beach", "Molhe Leste")
	resp, _ = env.post(t, path, form, admin)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	got, err := env.blog.Spot(context.Background(), spot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Molhe Leste", got.NameBeach)

	resp, _ = env.post(t, "/delete/"+itoa(spot.ID), nil, admin)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Zero(t, env.countSpots(t))

	resp, _ = env.post(t, "/delete/"+itoa(spot.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSpotPageAndComments(t *testing.T) {
	env := newTestEnv(t)
	spot := env.seedSpot(t, "Portugal")
	path := "/spot/" + itoa(spot.ID)

	resp, body := env.get(t, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Log in to leave a comment.")

	resp, _ = env.post(t, path+"/comment", url.Values{"text": {"anonymous note"}}, nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	_, body = env.get(t, path, resp.Cookies())
	assert.Contains(t, body, "Please log in to leave a comment.")
	assert.NotContains(t, body, "anonymous note")

	member := env.signUp(t, "gabriel")
	resp, _ = env.post(t, path+"/comment", url.Values{"text": {"Barrels all morning"}}, member)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	_, body = env.get(t, path, member)
	assert.Contains(t, body, "Barrels all morning")
	assert.Contains(t, body, "<strong>gabriel</strong>")

	resp, _ = env.get(t, "/spot/999", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = env.get(t, "/spot/abc", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestForecastPage(t *testing.T) {
	env := newTestEnv(t)
	env.forecast.report = &weather.Report{
		Place: weather.Coordinates{Name: "Nazaré"},
		Day:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Derived: weather.Derived{
			MeanWaterTemp: 17.3,
			AirTempAtNoon: []float64{22},
		},
		ChartURL: "/charts/abc",
	}

	resp, body := env.get(t, "/forecast", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="place"`)

	resp, body = env.post(t, "/forecast", url.Values{"place": {"Nazare"}}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Nazare"}, env.forecast.places)
	assert.Contains(t, body, `src="/charts/abc"`)
	assert.Contains(t, body, "Mean water temperature: 17.3")
	assert.Contains(t, body, "Air temperature at 12:00: 22.0")
}

func TestForecastErrorsFlash(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
		code int
	}{
		{"not coastal", apperr.E(apperr.Upstream, weather.MsgNotCoastal, weather.ErrMissingField), weather.MsgNotCoastal, fiber.StatusOK},
		{"validation", apperr.E(apperr.Validation, "Please enter the name of a beach or city.", nil), "Please enter the name", fiber.StatusOK},
		{"internal", errors.New("boom"), "Something went wrong", fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.forecast.err = tt.err

			resp, body := env.post(t, "/forecast", url.Values{"place": {"Madrid"}}, nil)

			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Contains(t, body, tt.want)
		})
	}
}

func TestNewsPage(t *testing.T) {
	env := newTestEnv(t)
	env.news.view = scrape.View{
		Snapshot: scrape.Snapshot{
			Rankings: []scrape.Ranking{{Rank: "1", Name: "Italo Ferreira", Country: "Brazil", Points: "10,000"}},
			Events:   []scrape.Event{{Dates: "Jun 5 - 14", Name: "Surf City El Salvador Pro", Status: "Upcoming"}},
		},
		FetchedAt: time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC),
		Stale:     true,
	}

	resp, body := env.get(t, "/news", nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Today is 2024-06-01.")
	assert.Contains(t, body, "Italo Ferreira")
	assert.Contains(t, body, "Surf City El Salvador Pro")
	assert.Contains(t, body, "showing the copy from 2024-06-01 03:00")
}

func TestNewsPageWithoutSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.news.err = scrape.ErrNoSnapshot

	resp, body := env.post(t, "/news", nil, nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "could not be loaded")
}

func TestChartsServed(t *testing.T) {
	env := newTestEnv(t)
	data := []byte("\x89PNG fake")
	u, err := env.images.Put(context.Background(), "image/png", data)
	require.NoError(t, err)

	resp, body := env.get(t, u, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(data), body)

	resp, _ = env.get(t, "/charts/"+strings.Repeat("0", 64), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGraphQL(t *testing.T) {
	env := newTestEnv(t)
	env.seedSpot(t, "Portugal")
	env.seedSpot(t, "Portugal")
	env.seedSpot(t, "Atlantis")

	query := func(q string) map[string]interface{} {
		payload, err := json.Marshal(map[string]interface{}{"query": q})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/graphql", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, body := env.do(t, req, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var out struct {
			Data   map[string]interface{} `json:"data"`
			Errors []interface{}          `json:"errors"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &out))
		require.Empty(t, out.Errors)
		return out.Data
	}

	data := query(`{ spots(country: "Portugal") { id nameBeach country author { name } } }`)
	spots := data["spots"].([]interface{})
	require.Len(t, spots, 2)
	first := spots[0].(map[string]interface{})
	assert.Equal(t, "Supertubos", first["nameBeach"])
	assert.Equal(t, "kelly", first["author"].(map[string]interface{})["name"])

	data = query(`{ spot(id: "1") { mapsUrl imgUrl } }`)
	spot := data["spot"].(map[string]interface{})
	assert.Equal(t, "https://maps.google.com/?q=supertubos", spot["mapsUrl"])

	data = query(`{ spot(id: "999") { id } }`)
	assert.Nil(t, data["spot"])

	data = query(`{ countries { country code count } }`)
	counts := data["countries"].([]interface{})
	require.Len(t, counts, 2)
	assert.Equal(t, map[string]interface{}{"country": "Portugal", "code": "PRT", "count": 2.0}, counts[0])
	assert.Equal(t, countries.UnknownCode, counts[1].(map[string]interface{})["code"])
}

func TestGraphQLBadBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader("not json"))

	resp, body := env.do(t, req, nil)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"error":true`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/metrics", nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
