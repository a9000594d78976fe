package mailer

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/scene-ouverte/newsletter-core/internal/config"
)

// Sender delivers fully-rendered messages via SMTP or the Resend API.
type Sender struct {
	cfg config.MailConfig
}

func New(cfg config.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Configured reports whether the transport can actually deliver. A send
// operation against an unconfigured transport is a fatal precondition error,
// checked before any per-recipient work starts.
func (s *Sender) Configured() bool {
	if !s.cfg.Enable {
		return false
	}
	if s.cfg.ResendKey != "" {
		return true
	}
	return s.cfg.Host != "" && s.cfg.User != ""
}

// Deliver sends one message to one recipient. The returned error text is what
// the delivery engine's bounce classifier inspects.
func (s *Sender) Deliver(to, subject, html string) error {
	if !s.Configured() {
		return fmt.Errorf("mail transport is not configured")
	}
	if s.cfg.ResendKey != "" {
		return s.sendResend(to, subject, html)
	}
	return s.sendSMTP(to, subject, html)
}

func (s *Sender) fromHeader() string {
	from := s.cfg.FromEmail
	if from == "" {
		from = s.cfg.User
	}
	if s.cfg.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.cfg.FromName, from)
	}
	return from
}

func (s *Sender) fromAddress() string {
	if s.cfg.FromEmail != "" {
		return s.cfg.FromEmail
	}
	return s.cfg.User
}

// sendSMTP sends via net/smtp; implicit TLS when secure is set, STARTTLS otherwise.
func (s *Sender) sendSMTP(to, subject, html string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", s.fromHeader()))
	body.WriteString(fmt.Sprintf("To: %s\r\n", to))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	if s.cfg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", s.cfg.ReplyTo))
	}
	body.WriteString("\r\n")
	body.WriteString(html)

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if !s.cfg.Secure {
		return smtp.SendMail(addr, auth, s.fromAddress(), []string{to}, body.Bytes())
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(s.fromAddress()); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// sendResend sends via the Resend HTTP API.
func (s *Sender) sendResend(to, subject, html string) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"from":    s.fromHeader(),
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		msg := strings.TrimSpace(errResp.Message)
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, msg)
	}
	return nil
}
