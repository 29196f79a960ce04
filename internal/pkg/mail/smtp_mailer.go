package mail

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/easycheckin/easycheckin/internal/pkg/env"
)

// Attachment is a base64-encoded file riding with a message. A non-empty
// ContentID makes it an inline part referenced from the HTML body via
// cid:<ContentID>.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Base64      string
}

// Message is one outbound email.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer sends messages. The SMTP implementation is the production path;
// tests substitute fakes.
type Mailer interface {
	Send(msg Message) error
}

// SMTPMailer sends emails via a plain SMTP gateway.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
	Name     string
}

// NewSMTPMailerFromEnv builds a mailer from SMTP_* environment variables.
func NewSMTPMailerFromEnv() *SMTPMailer {
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = "no-reply@localhost"
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}
	return &SMTPMailer{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   sender,
		Name:     env.GetEnv("SMTP_SENDER_NAME", "Easy Check-In"),
	}
}

// Send builds the MIME message and submits it. Text and HTML travel as
// multipart/alternative; inline attachments wrap the whole body in
// multipart/related so mail clients resolve cid references.
func (m *SMTPMailer) Send(msg Message) error {
	var auth smtp.Auth
	if m.Username != "" && m.Password != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	raw, err := BuildMIME(m.Sender, m.Name, msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.Sender, []string{msg.To}, raw); err != nil {
		log.Printf("SMTP send error for %s: %v", msg.To, err)
		return err
	}
	log.Printf("Email sent to %s via %s", msg.To, addr)
	return nil
}

// BuildMIME renders the full RFC 2045 message body including headers.
func BuildMIME(sender, senderName string, msg Message) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s <%s>\r\n", senderName, sender))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	sb.WriteString("MIME-Version: 1.0\r\n")

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	if len(msg.Attachments) > 0 {
		sb.WriteString(fmt.Sprintf("Content-Type: multipart/related; boundary=%q\r\n\r\n", writer.Boundary()))
	} else {
		sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary()))
	}

	if msg.Text != "" {
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/plain; charset=UTF-8"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write([]byte(msg.Text)); err != nil {
			return nil, err
		}
	}

	htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(msg.HTML)); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		header := textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", att.ContentType, att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("inline; filename=%q", att.Filename)},
		}
		if att.ContentID != "" {
			header.Set("Content-ID", "<"+att.ContentID+">")
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write([]byte(att.Base64)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	sb.WriteString(body.String())
	return []byte(sb.String()), nil
}
