// Package email formats marketplace notifications and sends them over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/property"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Message is a plain-text email.
type Message struct {
	To      []string `json:"to"`
	ReplyTo string   `json:"replyTo,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// InquiryMessage builds the email telling an owner about a new inquiry.
func InquiryMessage(q *inquiry.Inquiry, p *property.Property) Message {
	var buf bytes.Buffer

	owner := p.OwnerName
	if owner == "" {
		owner = "Property Owner"
	}
	phone := q.Phone
	if phone == "" {
		phone = "Not provided"
	}

	fmt.Fprintf(&buf, "Hi %s,\n\n", owner)
	fmt.Fprintf(&buf, "%s is interested in your listing:\n\n", q.Name)
	fmt.Fprintf(&buf, "   %s\n", p.Title)
	fmt.Fprintf(&buf, "   %s, %s\n", p.Address, p.City)
	fmt.Fprintf(&buf, "   ₹%s/month\n\n", formatWithCommas(p.Rent))
	fmt.Fprintf(&buf, "Message:\n%s\n\n", q.Message)
	fmt.Fprintf(&buf, "Contact:\n   %s\n   %s\n\n", q.Email, phone)
	fmt.Fprintf(&buf, "Reply to this email to respond.\n")

	return Message{
		To:      []string{p.OwnerEmail},
		ReplyTo: q.Email,
		Subject: "Property Inquiry: " + p.Title,
		Body:    buf.String(),
	}
}

// ResponseMessage builds the email carrying an owner's reply to a seeker.
func ResponseMessage(q *inquiry.Inquiry, reply string) Message {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi %s,\n\n", q.Name)
	fmt.Fprintf(&buf, "%s replied to your inquiry about %s:\n\n", q.OwnerName, q.PropertyTitle)
	fmt.Fprintf(&buf, "%s\n\n", reply)
	fmt.Fprintf(&buf, "Thanks!\n")

	return Message{
		To:      []string{q.Email},
		ReplyTo: q.OwnerEmail,
		Subject: "Response: " + q.PropertyTitle,
		Body:    buf.String(),
	}
}

// Format renders msg as an RFC 5322 message from the given sender.
func Format(from string, msg Message) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s", msg.Body)
	return buf.String()
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, msg Message) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	raw := Format(cfg.From, msg)
	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, msg.To, raw)
	}
	return sendSTARTTLS(cfg, addr, msg.To, raw)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func formatWithCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
