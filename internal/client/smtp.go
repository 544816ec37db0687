package client

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPClient struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPClient(host, port, username, password, from string) *SMTPClient {
	return &SMTPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

type EmailMessage struct {
	To      string
	Subject string
	Text    string
}

// Send delivers one message over SMTP. The SMTP conversation has no context
// plumbing in net/smtp; delivery errors are transient (the relay being
// unreachable heals), missing configuration is permanent.
func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	_ = ctx
	if c.host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if c.from == "" {
		return fmt.Errorf("smtp from not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("missing recipient address")
	}

	addr := fmt.Sprintf("%s:%s", c.host, c.port)
	data := buildMail(c.from, msg)

	var auth smtp.Auth
	if c.username != "" || c.password != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}
	if err := smtp.SendMail(addr, auth, c.from, []string{msg.To}, data); err != nil {
		return Transient(err)
	}
	return nil
}

func buildMail(from string, msg EmailMessage) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Text)
}
