// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

// SMTPConfig holds the relay parameters.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
	FromName  string
	TLS       bool
}

// SMTPSender delivers messages through an SMTP relay, one connection per message.
type SMTPSender struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTPSender constructs an [SMTPSender].
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now}
}

/*
Send opens a connection, upgrades it with STARTTLS when configured,
authenticates and submits the message.

Parameters:
  - context: bounds dialing and the whole SMTP exchange
  - message: Message

Returns:
  - error: any connection or protocol failure
*/
func (sender *SMTPSender) Send(context context.Context, message Message) error {
	address := net.JoinHostPort(sender.cfg.Host, strconv.Itoa(sender.cfg.Port))

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(context, "tcp", address)
	if err != nil {
		return fmt.Errorf("smtp_dial_failed: %w", err)
	}

	if deadline, ok := context.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, sender.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp_handshake_failed: %w", err)
	}
	defer client.Close()

	if sender.cfg.TLS {
		if err := client.StartTLS(&tls.Config{ServerName: sender.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp_starttls_failed: %w", err)
		}
	}

	if sender.cfg.User != "" {
		auth := smtp.PlainAuth("", sender.cfg.User, sender.cfg.Password, sender.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp_auth_failed: %w", err)
		}
	}

	if err := client.Mail(sender.cfg.FromEmail); err != nil {
		return fmt.Errorf("smtp_mail_from_failed: %w", err)
	}
	if err := client.Rcpt(message.To); err != nil {
		return fmt.Errorf("smtp_rcpt_failed: %w", err)
	}

	body, err := sender.compose(message)
	if err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp_data_failed: %w", err)
	}
	if _, err := writer.Write(body); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp_write_failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp_data_close_failed: %w", err)
	}

	return client.Quit()
}

// compose builds a multipart/alternative MIME message.
func (sender *SMTPSender) compose(message Message) ([]byte, error) {
	var buffer bytes.Buffer
	parts := multipart.NewWriter(&buffer)

	from := mail.Address{Name: sender.cfg.FromName, Address: sender.cfg.FromEmail}
	headers := []struct{ key, value string }{
		{"From", from.String()},
		{"To", message.To},
		{"Subject", mime.QEncoding.Encode("utf-8", message.Subject)},
		{"Date", sender.now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + parts.Boundary()},
	}
	for _, header := range headers {
		fmt.Fprintf(&buffer, "%s: %s\r\n", header.key, header.value)
	}
	buffer.WriteString("\r\n")

	for _, part := range []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", message.Text},
		{"text/html; charset=utf-8", message.HTML},
	} {
		section, err := parts.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, fmt.Errorf("smtp_compose_failed: %w", err)
		}
		if _, err := section.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("smtp_compose_failed: %w", err)
		}
	}

	if err := parts.Close(); err != nil {
		return nil, fmt.Errorf("smtp_compose_failed: %w", err)
	}

	return buffer.Bytes(), nil
}
