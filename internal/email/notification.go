// Package email renders and sends run notifications: a success message for
// remote publishes, the finished article for local runs, and a diagnostic
// message when a run fails.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Template holds the visual configuration for notification emails.
type Template struct {
	Name        string
	HeaderColor string
	TextColor   string
	LinkColor   string
	BorderColor string
	MaxWidth    string
	FontFamily  string
}

// DefaultTemplate returns the stock notification styling.
func DefaultTemplate() *Template {
	return &Template{
		Name:        "default",
		HeaderColor: "#08b2c6",
		TextColor:   "#1e293b",
		LinkColor:   "#0e7490",
		BorderColor: "#e2e8f0",
		MaxWidth:    "600px",
		FontFamily:  "system-ui, -apple-system, 'Segoe UI', Roboto, sans-serif",
	}
}

// SuccessData feeds the remote-publish notification.
type SuccessData struct {
	Title      string
	Date       string
	PostLink   string
	EditLink   string
	ImageCount int
}

// LocalData feeds the local-mode notification; the article itself rides
// along as an attachment.
type LocalData struct {
	Title      string
	Date       string
	ImageCount int
	Attachment string
}

// FailureData feeds the failure notification.
type FailureData struct {
	Title      string
	Date       string
	Stage      string
	Reason     string
	Steps      []string
	HasArticle bool
}

const baseHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Data.Title}}</title>
</head>
<body style="margin: 0; padding: 20px; font-family: {{.Template.FontFamily}}; color: {{.Template.TextColor}};">
<div style="max-width: {{.Template.MaxWidth}}; margin: 0 auto; border: 1px solid {{.Template.BorderColor}}; border-radius: 8px; overflow: hidden;">
<div style="background-color: {{.Template.HeaderColor}}; color: #ffffff; padding: 24px; text-align: center;">
<h1 style="margin: 0; font-size: 22px;">{{.Heading}}</h1>
<p style="margin: 8px 0 0; font-size: 14px; opacity: 0.9;">{{.Data.Date}}</p>
</div>
<div style="padding: 24px;">`

const baseFooter = `</div>
<div style="background-color: #f1f5f9; padding: 16px 24px; text-align: center; font-size: 13px; color: #64748b; border-top: 1px solid {{.Template.BorderColor}};">
<p style="margin: 0;">Generated by Newsstand</p>
</div>
</div>
</body>
</html>`

const successBody = `<p>Your article has been created as a WordPress draft and is ready for review.</p>
<h2 style="font-size: 18px; color: {{.Template.HeaderColor}};">{{.Data.Title}}</h2>
<p>{{.Data.ImageCount}} images were generated and uploaded to the media library.</p>
<p>
<a href="{{.Data.EditLink}}" style="display: inline-block; padding: 12px 24px; background-color: {{.Template.HeaderColor}}; color: #ffffff; border-radius: 6px; text-decoration: none; font-weight: 600;">Review Draft</a>
</p>
{{if .Data.PostLink}}<p style="font-size: 14px;">Preview: <a href="{{.Data.PostLink}}" style="color: {{.Template.LinkColor}};">{{.Data.PostLink}}</a></p>{{end}}`

const localBody = `<p>Your article was generated in local mode and is attached to this email as a self-contained HTML file.</p>
<h2 style="font-size: 18px; color: {{.Template.HeaderColor}};">{{.Data.Title}}</h2>
<p>{{.Data.ImageCount}} images were generated and embedded directly into the document, so it stays readable after the provider links expire.</p>
<p style="font-size: 14px;">Attachment: <strong>{{.Data.Attachment}}</strong></p>`

const failureBody = `<p>Article generation did not complete.</p>
<div style="background-color: #fef2f2; border-left: 4px solid #dc2626; padding: 16px; margin: 16px 0;">
<p style="margin: 0 0 8px;"><strong>Failed stage:</strong> {{.Data.Stage}}</p>
<p style="margin: 0;"><strong>Reason:</strong> {{.Data.Reason}}</p>
</div>
{{if .Data.Steps}}
<h3 style="font-size: 16px;">Suggested next steps</h3>
<ul>
{{range .Data.Steps}}<li style="margin-bottom: 6px;">{{.}}</li>
{{end}}</ul>
{{end}}
{{if .Data.HasArticle}}<p style="font-size: 14px;">The generated article survived and is attached so the work is not lost.</p>{{end}}`

// RenderSuccess builds the remote-publish notification HTML.
func RenderSuccess(data SuccessData, tmpl *Template) (string, error) {
	return render("success", baseHeader+successBody+baseFooter, "Article Draft Ready", data, tmpl)
}

// RenderLocal builds the local-mode notification HTML.
func RenderLocal(data LocalData, tmpl *Template) (string, error) {
	return render("local", baseHeader+localBody+baseFooter, "Your Article Has Arrived", data, tmpl)
}

// RenderFailure builds the failure notification HTML.
func RenderFailure(data FailureData, tmpl *Template) (string, error) {
	return render("failure", baseHeader+failureBody+baseFooter, "Article Generation Failed", data, tmpl)
}

func render(name, text, heading string, data any, tmpl *Template) (string, error) {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}

	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	payload := struct {
		Data     any
		Template *Template
		Heading  string
	}{Data: data, Template: tmpl, Heading: heading}

	var buf bytes.Buffer
	if err := t.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return buf.String(), nil
}

// Today returns the date string used in notification headers.
func Today() string {
	return time.Now().Format("January 2, 2006")
}
