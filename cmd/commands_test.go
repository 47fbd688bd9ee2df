package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/time/rate"

	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/collection"
	"github.com/ademuri/vinylvault/internal/kv"
	"github.com/ademuri/vinylvault/internal/lists"
	"github.com/ademuri/vinylvault/internal/stats"
)

const (
	albumXBody = `{"id": "x", "name": "Loveless", "images": [{"url": "https://img/x"}]}`
	albumYBody = `{"id": "y", "name": "Souvlaki", "images": []}`

	topTracksBody = `{"items": [
		{"id": "t1", "name": "Only Shallow", "duration_ms": 257000,
		 "album": {"id": "x", "name": "Loveless"}, "artists": [{"id": "a1", "name": "my bloody valentine"}]},
		{"id": "t2", "name": "Alison", "duration_ms": 230000,
		 "album": {"id": "y", "name": "Souvlaki"}, "artists": [{"id": "a2", "name": "Slowdive"}]}
	]}`
	topArtistsBody = `{"items": [
		{"id": "a1", "name": "my bloody valentine", "genres": ["shoegaze", "noise pop"]},
		{"id": "a2", "name": "Slowdive", "genres": ["shoegaze", "dream pop"]}
	]}`
	allTimeArtistsBody = `{"items": [
		{"id": "a3", "name": "Metallica", "genres": ["thrash metal"]}
	]}`
)

func spotifyHandler(calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		switch r.URL.Path {
		case "/albums/x":
			fmt.Fprint(w, albumXBody)
		case "/albums/y":
			fmt.Fprint(w, albumYBody)
		case "/search":
			fmt.Fprintf(w, `{"albums": {"items": [%s, %s]}}`, albumXBody, albumYBody)
		case "/me/top/tracks":
			fmt.Fprint(w, topTracksBody)
		case "/me/top/artists":
			if r.URL.Query().Get("time_range") == "long_term" {
				fmt.Fprint(w, allTimeArtistsBody)
				return
			}
			fmt.Fprint(w, topArtistsBody)
		default:
			http.NotFound(w, r)
		}
	}
}

// newTestApp returns an app over an in-memory store talking to a fake Spotify
// API, and a counter of requests the API received.
func newTestApp(t *testing.T, signedIn bool) (*app, *int32) {
	t.Helper()
	ctx := context.Background()

	var calls int32
	server := httptest.NewServer(spotifyHandler(&calls))
	t.Cleanup(server.Close)

	a, err := newApp(ctx, kv.NewMemory(), zerolog.Nop(),
		catalog.WithBaseURL(server.URL),
		catalog.WithRateLimit(rate.Inf, 1),
		catalog.WithRetryDelay(0))
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if signedIn {
		if err := runLogin(ctx, a, &bytes.Buffer{}, "vinylvault://callback#access_token=tok&token_type=Bearer"); err != nil {
			t.Fatalf("runLogin error: %v", err)
		}
	}
	return a, &calls
}

func TestAddAndRemove(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	var out bytes.Buffer

	if err := runAdd(ctx, a, &out, "x"); err != nil {
		t.Fatalf("runAdd error: %v", err)
	}
	if !strings.Contains(out.String(), "Added Loveless") {
		t.Errorf("output = %q", out.String())
	}

	if err := runAdd(ctx, a, &out, "x"); !errors.Is(err, collection.ErrAlreadyAdded) {
		t.Errorf("second runAdd = %v, want ErrAlreadyAdded", err)
	}

	if err := runListAdd(ctx, a, &out, "favorites", "x"); err != nil {
		t.Fatalf("runListAdd error: %v", err)
	}
	if err := runRemove(ctx, a, &out, "x"); err != nil {
		t.Fatalf("runRemove error: %v", err)
	}
	if a.collection.Contains("x") {
		t.Errorf("album still collected")
	}
	for _, l := range a.lists.Lists() {
		if l.Contains("x") {
			t.Errorf("list %s still contains removed album", l.Name)
		}
	}
}

func TestAddUnknownAlbum(t *testing.T) {
	a, _ := newTestApp(t, true)
	if err := runAdd(context.Background(), a, &bytes.Buffer{}, "nope"); err == nil {
		t.Errorf("runAdd of unknown album should fail")
	}
}

func TestSearchMarksCollected(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	runAdd(ctx, a, &bytes.Buffer{}, "y")

	var out bytes.Buffer
	if err := runSearch(ctx, a, &out, "shoegaze"); err != nil {
		t.Fatalf("runSearch error: %v", err)
	}
	for _, want := range []string{"Loveless", "Souvlaki", "yes", "Found 2 albums"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("search output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRateAndNotes(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	runAdd(ctx, a, &bytes.Buffer{}, "x")

	var out bytes.Buffer
	if err := runRate(ctx, a, &out, "x", "4.4"); err != nil {
		t.Fatalf("runRate error: %v", err)
	}
	if !strings.Contains(out.String(), "4.5") {
		t.Errorf("rate output = %q", out.String())
	}
	if err := runRate(ctx, a, &out, "x", "six"); !errors.Is(err, collection.ErrInvalidRating) {
		t.Errorf("runRate(six) = %v", err)
	}

	if err := runNoteFromReader(ctx, a, &out, "x", strings.NewReader("wall of sound\nbest on vinyl\n")); err != nil {
		t.Fatalf("runNoteFromReader error: %v", err)
	}
	notes, _ := a.collection.Notes(ctx, "x")
	if notes != "wall of sound\nbest on vinyl" {
		t.Errorf("notes = %q", notes)
	}

	out.Reset()
	if err := printCollection(ctx, a, &out); err != nil {
		t.Fatalf("printCollection error: %v", err)
	}
	for _, want := range []string{"Loveless", "4.5", "wall of sound best on vinyl"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("collection output missing %q:\n%s", want, out.String())
		}
	}
}

func TestListCommands(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	var out bytes.Buffer

	runAdd(ctx, a, &out, "x")
	runAdd(ctx, a, &out, "y")

	if err := runListCreate(ctx, a, &out, "Late Night"); err != nil {
		t.Fatalf("runListCreate error: %v", err)
	}
	if err := runListAdd(ctx, a, &out, "late night", "y"); err != nil {
		t.Fatalf("runListAdd error: %v", err)
	}
	if err := runListAdd(ctx, a, &out, "late night", "not-collected"); !errors.Is(err, collection.ErrAlbumNotFound) {
		t.Errorf("runListAdd of uncollected album = %v", err)
	}
	if err := runListAdd(ctx, a, &out, "missing list", "x"); !errors.Is(err, lists.ErrListNotFound) {
		t.Errorf("runListAdd to missing list = %v", err)
	}
	if err := runListRename(ctx, a, &out, "Late Night", "Night Drive"); err != nil {
		t.Fatalf("runListRename error: %v", err)
	}

	out.Reset()
	if err := printList(ctx, a, &out, "night drive"); err != nil {
		t.Fatalf("printList error: %v", err)
	}
	if !strings.Contains(out.String(), "Souvlaki") || strings.Contains(out.String(), "Loveless") {
		t.Errorf("list output:\n%s", out.String())
	}

	if err := runListRemove(ctx, a, &out, "night drive", "y"); err != nil {
		t.Fatalf("runListRemove error: %v", err)
	}
	if err := runListDelete(ctx, a, &out, "night drive"); err != nil {
		t.Fatalf("runListDelete error: %v", err)
	}

	out.Reset()
	printLists(a, &out)
	if strings.Contains(out.String(), "Night Drive") || !strings.Contains(out.String(), "Favorites") {
		t.Errorf("lists output:\n%s", out.String())
	}
}

func TestExportList(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	runAdd(ctx, a, &bytes.Buffer{}, "x")
	runListAdd(ctx, a, &bytes.Buffer{}, "chill", "x")
	runRate(ctx, a, &bytes.Buffer{}, "x", "5")

	text, l, err := exportList(ctx, a, "Chill")
	if err != nil {
		t.Fatalf("exportList error: %v", err)
	}
	if l.Name != "Chill" {
		t.Errorf("list = %+v", l)
	}
	for _, want := range []string{"List: Chill", "Albums in list: 1", "Album: Loveless", "Rating: 5.0", "[No comment]"} {
		if !strings.Contains(text, want) {
			t.Errorf("export missing %q:\n%s", want, text)
		}
	}
}

type recordingSender struct {
	sent []*mail.SGMailV3
}

func (r *recordingSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	r.sent = append(r.sent, email)
	return &rest.Response{StatusCode: 202}, nil
}

func TestShareList(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	sender := &recordingSender{}

	var out bytes.Buffer
	if err := runListShare(ctx, a, &out, sender, "me@example.com", "Workout", "friend@example.com"); err != nil {
		t.Fatalf("runListShare error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Subject != "Album list: Workout" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestStatsNotSignedIn(t *testing.T) {
	a, calls := newTestApp(t, false)

	err := printStats(context.Background(), a, &bytes.Buffer{}, catalog.ShortTerm, 10)
	if err == nil || err.Error() != stats.NotSignedInMessage {
		t.Errorf("printStats error = %v, want %q", err, stats.NotSignedInMessage)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("made %d requests while signed out", n)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	runAdd(ctx, a, &bytes.Buffer{}, "x")

	var out bytes.Buffer
	if err := printStats(ctx, a, &out, catalog.ShortTerm, 10); err != nil {
		t.Fatalf("printStats error: %v", err)
	}
	for _, want := range []string{"Last 4 Weeks", "Only Shallow", "Slowdive", "Loveless", "257.00", "shoegaze", "1.50"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stats output missing %q:\n%s", want, out.String())
		}
	}
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)

	var out bytes.Buffer
	if err := runReport(ctx, a, &out, catalog.ShortTerm, catalog.LongTerm, 5); err != nil {
		t.Fatalf("runReport error: %v", err)
	}
	for _, want := range []string{"top_albums:", "title: Loveless", "genre: shoegaze", "declined_genres:", "thrash metal", "collection:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	runAdd(ctx, a, &bytes.Buffer{}, "x")
	runAdd(ctx, a, &bytes.Buffer{}, "y")
	runRate(ctx, a, &bytes.Buffer{}, "x", "4")

	var out bytes.Buffer
	if err := printDashboard(ctx, a, &out); err != nil {
		t.Fatalf("printDashboard error: %v", err)
	}
	for _, want := range []string{"Albums collected: 2", "Average rating: 2.00", "Favorites", "Signed in to Spotify: yes"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dashboard missing %q:\n%s", want, out.String())
		}
	}
}

func TestLogout(t *testing.T) {
	a, _ := newTestApp(t, true)
	if err := a.creds.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if a.creds.SignedIn() {
		t.Errorf("still signed in")
	}
}

func TestPrintLoginURL(t *testing.T) {
	if err := printLoginURL(&bytes.Buffer{}, "", "vinylvault://callback"); err == nil {
		t.Errorf("printLoginURL without client id should fail")
	}

	var out bytes.Buffer
	if err := printLoginURL(&out, "abc", "vinylvault://callback"); err != nil {
		t.Fatalf("printLoginURL error: %v", err)
	}
	if !strings.Contains(out.String(), "client_id=abc") {
		t.Errorf("login url = %q", out.String())
	}
}

func TestWindowFromArgs(t *testing.T) {
	if w, err := windowFromArgs(nil); err != nil || w != catalog.MediumTerm {
		t.Errorf("windowFromArgs(nil) = %v, %v", w, err)
	}
	if w, err := windowFromArgs([]string{"4w"}); err != nil || w != catalog.ShortTerm {
		t.Errorf("windowFromArgs(4w) = %v, %v", w, err)
	}
	if _, err := windowFromArgs([]string{"decade"}); err == nil {
		t.Errorf("windowFromArgs(decade) should fail")
	}
}

func TestNumberMustBePositive(t *testing.T) {
	defer func(n int) { reportNumber = n }(reportNumber)
	reportNumber = -1
	if err := reportCmd.RunE(reportCmd, nil); err == nil {
		t.Errorf("report with --number -1 should fail")
	}

	defer func(n int) { statsNumber = n }(statsNumber)
	statsNumber = 0
	if err := statsCmd.RunE(statsCmd, nil); err == nil {
		t.Errorf("stats with --number 0 should fail")
	}
}
