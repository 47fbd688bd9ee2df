package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/collection"
	"github.com/ademuri/vinylvault/internal/lists"
)

func collected(id, name string, rating float64, notes string) collection.CollectedAlbum {
	return collection.CollectedAlbum{
		Album:  catalog.Album{ID: id, Name: name},
		Rating: rating,
		Notes:  notes,
	}
}

func TestListText(t *testing.T) {
	list := lists.AlbumList{ID: "l", Name: "Chill", AlbumIDs: []string{"b", "a", "gone"}}
	albums := []collection.CollectedAlbum{
		collected("a", "Blue", 4.5, "late nights"),
		collected("c", "Not in list", 3, ""),
		collected("b", "Kind of Blue", 0, ""),
	}

	want := `Album List Export

List: Chill
Albums in list: 2
=================================

Album: Blue
  Rating: 4.5
  Note: late nights

Album: Kind of Blue
  Rating: 0.0
  Note: [No comment]

=================================
`
	if got := ListText(list, albums); got != want {
		t.Errorf("ListText =\n%s\nwant\n%s", got, want)
	}
}

func TestListTextEmpty(t *testing.T) {
	got := ListText(lists.AlbumList{Name: "Workout"}, nil)
	if !strings.Contains(got, "Albums in list: 0\n") {
		t.Errorf("ListText = %q", got)
	}
}

type fakeSender struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestShare(t *testing.T) {
	sender := &fakeSender{status: 202}
	if err := Share(sender, "me@example.com", "friend@example.com", "Album list: Chill", "a < b"); err != nil {
		t.Fatalf("Share error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	m := sender.sent[0]
	if m.From.Address != "me@example.com" || m.Subject != "Album list: Chill" {
		t.Errorf("message = %+v", m)
	}
	if len(m.Content) != 2 || m.Content[0].Value != "a < b" || !strings.Contains(m.Content[1].Value, "a &lt; b") {
		t.Errorf("content = %+v", m.Content)
	}
}

func TestShareErrors(t *testing.T) {
	if err := Share(&fakeSender{status: 202}, "", "friend@example.com", "s", "b"); err == nil {
		t.Errorf("Share without from should fail")
	}
	if err := Share(&fakeSender{status: 401}, "me@example.com", "friend@example.com", "s", "b"); err == nil {
		t.Errorf("Share should fail on a rejected request")
	}
	boom := errors.New("boom")
	if err := Share(&fakeSender{err: boom}, "me@example.com", "friend@example.com", "s", "b"); !errors.Is(err, boom) {
		t.Errorf("Share error = %v, want wrapped boom", err)
	}
}
