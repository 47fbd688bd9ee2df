// Package export renders an album list as plain text and shares it by email.
package export

import (
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ademuri/vinylvault/internal/collection"
	"github.com/ademuri/vinylvault/internal/lists"
)

const (
	separator     = "================================="
	noCommentText = "[No comment]"
	senderName    = "vinylvault"
)

// ListText renders list with the rating and notes of each member. Albums
// appear in collection order; ids in the list that are not collected are
// skipped.
func ListText(list lists.AlbumList, collected []collection.CollectedAlbum) string {
	members := make([]collection.CollectedAlbum, 0, len(list.AlbumIDs))
	for _, c := range collected {
		if list.Contains(c.ID) {
			members = append(members, c)
		}
	}

	var b strings.Builder
	b.WriteString("Album List Export\n\n")
	fmt.Fprintf(&b, "List: %s\n", list.Name)
	fmt.Fprintf(&b, "Albums in list: %d\n", len(members))
	b.WriteString(separator + "\n\n")

	for _, c := range members {
		note := c.Notes
		if note == "" {
			note = noCommentText
		}
		fmt.Fprintf(&b, "Album: %s\n", c.Name)
		fmt.Fprintf(&b, "  Rating: %.1f\n", c.Rating)
		fmt.Fprintf(&b, "  Note: %s\n\n", note)
	}

	b.WriteString(separator + "\n")
	return b.String()
}

// Sender delivers a message. *sendgrid.Client satisfies it.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Share emails body to the given address.
func Share(sender Sender, from, to, subject, body string) error {
	if from == "" {
		return fmt.Errorf("a from address is required to share lists")
	}
	if to == "" {
		return fmt.Errorf("a recipient address is required")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, from),
		subject,
		mail.NewEmail(to, to),
		body,
		"<pre>"+htmlEscape(body)+"</pre>",
	)
	resp, err := sender.Send(message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("sending email: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func Subject(list lists.AlbumList) string {
	return fmt.Sprintf("Album list: %s", list.Name)
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func htmlEscape(s string) string {
	return htmlReplacer.Replace(s)
}
