package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
)

// Attachment is a file sent along with a notification.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sender delivers notifications over SMTP with STARTTLS auth.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string

	// send is swapped out by tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender creates an SMTP sender.
func NewSender(host string, port int, username, password, from, fromName string) *Sender {
	if from == "" {
		from = username
	}
	return &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		send:     smtp.SendMail,
	}
}

// Send delivers an HTML message, with optional attachments, to a single
// recipient.
func (s *Sender) Send(to, subject, htmlBody string, attachments []Attachment) error {
	if s.host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if to == "" {
		return fmt.Errorf("no recipient address")
	}

	msg, err := s.buildMessage(to, subject, htmlBody, attachments)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := s.send(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *Sender) buildMessage(to, subject, htmlBody string, attachments []Attachment) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fromHeader := s.from
	if s.fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/html; charset=utf-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := bodyPart.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("failed to write body part: %w", err)
	}

	for _, att := range attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// Wrap base64 at 76 columns per RFC 2045.
		for len(encoded) > 0 {
			n := 76
			if len(encoded) < n {
				n = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[:n] + "\r\n")); err != nil {
				return nil, fmt.Errorf("failed to write attachment: %w", err)
			}
			encoded = encoded[n:]
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	return buf.Bytes(), nil
}

// SubjectFor builds the subject line for a run outcome.
func SubjectFor(outcome, title string) string {
	switch outcome {
	case "success":
		return fmt.Sprintf("Article draft ready: %s", title)
	case "local":
		return fmt.Sprintf("Your article: %s", title)
	default:
		if title == "" {
			return "Article generation failed"
		}
		return fmt.Sprintf("Article generation failed: %s", strings.TrimSpace(title))
	}
}
