// Package mail sends campaign emails through an SMTP relay.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// Message is one outbound email.  Body is HTML.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message or returns the delivery error.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTP sends through a relay with optional PLAIN authentication.
type SMTP struct {
	Addr     string
	Username string
	Password string

	// sendMail is smtp.SendMail; swapped in tests.
	sendMail func(addr string, a sasl.Client, from string, to []string, r *bytes.Reader) error
}

func NewSMTP(host string, port int, username, password string) *SMTP {
	return &SMTP{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Username: username,
		Password: password,
		sendMail: func(addr string, a sasl.Client, from string, to []string, r *bytes.Reader) error {
			return smtp.SendMail(addr, a, from, to, r)
		},
	}
}

var errNoRecipient = errors.New("mail: empty recipient")

func (s *SMTP) Send(ctx context.Context, m Message) error {
	if strings.TrimSpace(m.To) == "" {
		return errNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth sasl.Client
	if s.Username != "" {
		auth = sasl.NewPlainClient("", s.Username, s.Password)
	}
	if err := s.sendMail(s.Addr, auth, envelopeAddress(m.From), []string{m.To}, bytes.NewReader(Build(m, time.Now()))); err != nil {
		return fmt.Errorf("send to %s: %w", m.To, err)
	}
	return nil
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

// Build renders m as an RFC 5322 HTML message.
func Build(m Message, now time.Time) []byte {
	var b bytes.Buffer
	domain := "localhost"
	if at := strings.LastIndex(envelopeAddress(m.From), "@"); at >= 0 {
		domain = envelopeAddress(m.From)[at+1:]
	}
	header := func(k, v string) { b.WriteString(k + ": " + v + "\r\n") }
	header("From", m.From)
	header("To", m.To)
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domain+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes()
}
