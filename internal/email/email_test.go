package email

import (
	"net/smtp"
	"strings"
	"testing"
)

func TestRenderSuccess(t *testing.T) {
	html, err := RenderSuccess(SuccessData{
		Title:      "Grid Batteries",
		Date:       "June 1, 2025",
		PostLink:   "https://site.example/?p=7",
		EditLink:   "https://site.example/wp-admin/post.php?post=7&action=edit",
		ImageCount: 5,
	}, nil)
	if err != nil {
		t.Fatalf("RenderSuccess failed: %v", err)
	}

	for _, want := range []string{"Grid Batteries", "Review Draft", "post=7", "5 images", "June 1, 2025"} {
		if !strings.Contains(html, want) {
			t.Errorf("success email missing %q", want)
		}
	}
}

func TestRenderLocal(t *testing.T) {
	html, err := RenderLocal(LocalData{
		Title:      "Grid Batteries",
		Date:       "June 1, 2025",
		ImageCount: 4,
		Attachment: "grid-batteries.html",
	}, nil)
	if err != nil {
		t.Fatalf("RenderLocal failed: %v", err)
	}
	if !strings.Contains(html, "grid-batteries.html") {
		t.Error("local email missing attachment name")
	}
	if !strings.Contains(html, "embedded directly") {
		t.Error("local email missing embedding note")
	}
}

func TestRenderFailure(t *testing.T) {
	html, err := RenderFailure(FailureData{
		Title:      "Grid Batteries",
		Date:       "June 1, 2025",
		Stage:      "images",
		Reason:     "hero image generation failed",
		Steps:      []string{"Check the Replicate dashboard", "Re-run with --local"},
		HasArticle: true,
	}, nil)
	if err != nil {
		t.Fatalf("RenderFailure failed: %v", err)
	}

	for _, want := range []string{"images", "hero image generation failed", "Replicate dashboard", "attached"} {
		if !strings.Contains(html, want) {
			t.Errorf("failure email missing %q", want)
		}
	}
}

func TestSenderBuildsMultipartMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	sender := NewSender("smtp.example.com", 587, "user@example.com", "pw", "", "Newsstand")
	sender.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := sender.Send("reader@example.com", "Your article", "<p>hello</p>", []Attachment{
		{Filename: "article.html", ContentType: "text/html", Data: []byte("<html>doc</html>")},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "user@example.com" {
		t.Errorf("unexpected from %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "reader@example.com" {
		t.Errorf("unexpected recipients %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"From: Newsstand <user@example.com>",
		"Subject: Your article",
		"multipart/mixed",
		"<p>hello</p>",
		`attachment; filename="article.html"`,
		"Content-Transfer-Encoding: base64",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSenderValidation(t *testing.T) {
	sender := NewSender("", 587, "u", "p", "", "")
	if err := sender.Send("to@example.com", "s", "b", nil); err == nil {
		t.Error("expected error for missing host")
	}

	sender = NewSender("smtp.example.com", 587, "u", "p", "", "")
	if err := sender.Send("", "s", "b", nil); err == nil {
		t.Error("expected error for missing recipient")
	}
}

func TestSubjectFor(t *testing.T) {
	if got := SubjectFor("success", "T"); got != "Article draft ready: T" {
		t.Errorf("unexpected subject %q", got)
	}
	if got := SubjectFor("failure", ""); got != "Article generation failed" {
		t.Errorf("unexpected subject %q", got)
	}
}
