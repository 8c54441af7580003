package tools

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"

	"github.com/rahul/manuclaw/internal/governance"
)

var recipientPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// SMTPConfig carries the credentials for the email tool. Secrets are
// never hard-coded; they come from the config file at startup.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// EmailSendTool mails the produced summary to a recipient named in the
// user's message. Every send is evaluated against the governance
// policy before the SMTP dial.
type EmailSendTool struct {
	Config  SMTPConfig
	Policy  governance.PolicyEngine
	Subject string

	// send is swappable for tests; defaults to SMTP over TLS.
	send func(cfg SMTPConfig, to, subject, body string) error
}

func NewEmailSendTool(cfg SMTPConfig, policy governance.PolicyEngine) *EmailSendTool {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &EmailSendTool{
		Config:  cfg,
		Policy:  policy,
		Subject: "Your summary from manuclaw",
		send:    sendViaSMTP,
	}
}

func (e *EmailSendTool) Name() string {
	return "email_send_tool"
}

func (e *EmailSendTool) Description() string {
	return "Send the produced summary by email to the recipient address mentioned in the user's message."
}

func (e *EmailSendTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"raw_input": map[string]any{
				"type":        "string",
				"description": "The raw user message containing the recipient email address",
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "The summary text to send as the email body",
			},
		},
		"required": []string{"raw_input", "summary"},
	}
}

func (e *EmailSendTool) Requires() []Field {
	return []Field{FieldRawInput, FieldSummary}
}

func (e *EmailSendTool) Provides() []Field {
	return []Field{FieldEmailReceipt}
}

func (e *EmailSendTool) Call(ctx context.Context, in Inputs) (Outputs, error) {
	to := recipientPattern.FindString(in[FieldRawInput])
	if to == "" {
		return nil, fmt.Errorf("no recipient email address found in input")
	}

	body := strings.TrimSpace(in[FieldSummary])
	if body == "" {
		return nil, fmt.Errorf("email body must not be blank")
	}

	if e.Config.User == "" || e.Config.Password == "" {
		return nil, fmt.Errorf("smtp user and password must be configured")
	}

	if e.Policy != nil {
		res, err := e.Policy.Evaluate(ctx, governance.Request{
			Recipient: to,
			Subject:   e.Subject,
			Body:      body,
		})
		if err != nil {
			return nil, fmt.Errorf("policy evaluation failed: %v", err)
		}
		if res.Effect == governance.EffectDeny {
			return nil, fmt.Errorf("send denied: %s", res.Reason)
		}
	}

	if err := e.send(e.Config, to, e.Subject, body); err != nil {
		return nil, fmt.Errorf("failed to send email: %v", err)
	}

	return Outputs{
		FieldEmailReceipt: fmt.Sprintf("Email sent to %s with subject %q", to, e.Subject),
	}, nil
}

// sendViaSMTP delivers a plain-text message over implicit TLS.
func sendViaSMTP(cfg SMTPConfig, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		cfg.From, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
