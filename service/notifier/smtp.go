package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
)

// SMTPConfig describes an SMTP relay. Credentials are never inlined: they
// are loaded through scy from CredentialsURL (a cred.Basic resource).
type SMTPConfig struct {
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	CredentialsURL string `json:"credentialsURL" yaml:"credentialsURL"`
	CredentialsKey string `json:"credentialsKey,omitempty" yaml:"credentialsKey,omitempty"` // e.g. "blowfish://default"
	Domain         string `json:"domain" yaml:"domain"`                                     // appended to bare usernames
}

type smtpSender struct {
	config  SMTPConfig
	secrets *scy.Service
}

// NewSMTPSender returns a Sender that delivers through the configured relay.
func NewSMTPSender(config SMTPConfig) Sender {
	return &smtpSender{config: config, secrets: scy.New()}
}

func (s *smtpSender) Send(ctx context.Context, email *Email) error {
	resource := scy.NewResource(&cred.Basic{}, s.config.CredentialsURL, s.config.CredentialsKey)
	secret, err := s.secrets.Load(ctx, resource)
	if err != nil {
		return fmt.Errorf("failed to load smtp credentials from %s: %w", s.config.CredentialsURL, err)
	}
	basic, ok := secret.Target.(*cred.Basic)
	if !ok {
		return fmt.Errorf("unexpected smtp credentials type %T", secret.Target)
	}

	from := s.address(email.From)
	to := s.address(email.To)
	recipients := append([]string{to}, email.CCAddresses...)

	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	if len(email.CCAddresses) > 0 {
		builder.WriteString("Cc: " + strings.Join(email.CCAddresses, ", ") + "\r\n")
	}
	builder.WriteString("Subject: " + email.Subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	builder.WriteString(email.Body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", basic.Username, basic.Password, s.config.Host)
	if err := smtp.SendMail(addr, auth, from, recipients, []byte(builder.String())); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

// address promotes a bare username to a full address using the configured
// domain; values that already contain '@' pass through unchanged.
func (s *smtpSender) address(user string) string {
	if strings.Contains(user, "@") || s.config.Domain == "" {
		return user
	}
	return user + "@" + s.config.Domain
}
