// Package mail delivers account emails.
package mail

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"
)

type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
}

// Links builds the two verification URLs sent to a user.
type Links struct {
	FrontendURL string
	TTL         time.Duration
}

func (l Links) base() string {
	return strings.TrimRight(l.FrontendURL, "/")
}

// Verify is the frontend page that redeems token.
func (l Links) Verify(token string) string {
	return l.base() + "/verify-email/" + token
}

// API is the backend endpoint that redeems token directly.
func (l Links) API(token string) string {
	return l.base() + "/api/auth/verify/" + token
}

type verificationData struct {
	VerifyLink string
	APILink    string
	Minutes    int
}

func (l Links) data(token string) verificationData {
	return verificationData{
		VerifyLink: l.Verify(token),
		APILink:    l.API(token),
		Minutes:    int(l.TTL.Minutes()),
	}
}

var verificationText = texttemplate.Must(texttemplate.New("text").Parse(`Hi,

Please verify your email by visiting this link:

{{.VerifyLink}}

If the above doesn't work, open this alternative link:
{{.APILink}}

This link expires in {{.Minutes}} minutes.

EduResources
`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("html").Parse(`<html><body style="font-family: sans-serif; font-size: 16px;">
  <p>Hi,</p>
  <p>Please verify your email by clicking the button below:</p>
  <p>
    <a href="{{.VerifyLink}}" target="_blank"
       style="background-color:#2563eb;color:white;padding:10px 18px;border-radius:8px;text-decoration:none;">
       Verify Email
    </a>
  </p>
  <p>If that doesn't work, paste this URL into your browser:<br><small>{{.APILink}}</small></p>
  <p>This link expires in {{.Minutes}} minutes.</p>
  <p>EduResources</p>
</body></html>
`))

const (
	verificationSubject = "Verify your email - EduResources"
	sendTimeout         = 30 * time.Second
)

type SMTPConfig struct {
	Server    string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPMailer sends multipart text and HTML mail through an SMTP relay.
type SMTPMailer struct {
	cfg   SMTPConfig
	links Links
	send  func(ctx context.Context, msg *gomail.Msg) error
}

func NewSMTPMailer(cfg SMTPConfig, links Links) *SMTPMailer {
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username
	}
	m := &SMTPMailer{cfg: cfg, links: links}
	m.send = m.dialAndSend
	return m
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, token string) error {
	msg, err := m.compose(to, verificationSubject, m.links.data(token))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	// A relay can stall after the dial; ctx still bounds the call.
	errCh := make(chan error, 1)
	go func() { errCh <- m.send(ctx, msg) }()
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) compose(to, subject string, data verificationData) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()

	if err := msg.SetBodyTextTemplate(verificationText, data); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(verificationHTML, data); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	return msg, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(m.cfg.Server,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(sendTimeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer writes the verification link to the log instead of sending it.
type LogMailer struct {
	log   logrus.FieldLogger
	links Links
}

func NewLogMailer(log logrus.FieldLogger, links Links) *LogMailer {
	return &LogMailer{log: log, links: links}
}

func (m *LogMailer) SendVerification(_ context.Context, to, token string) error {
	m.log.WithFields(logrus.Fields{
		"email": to,
		"link":  m.links.Verify(token),
	}).Info("smtp not configured, verification link logged")
	return nil
}
