// Package mail sends inquiry notifications over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/brianfending/contact-service/internal/domain"
)

const (
	// ChannelName names the notifier in logs and errors.
	ChannelName = "email"

	// dateLayout matches the en-US locale rendering, e.g. "3/14/2025, 11:09:26 AM".
	dateLayout = "1/2/2006, 3:04:05 PM"

	defaultTimeout = 15 * time.Second
)

// ErrNotConfigured is returned by NewNotifier when credentials are absent.
var ErrNotConfigured = errors.New("mail: username, password and recipient are required")

var (
	textBody = texttemplate.Must(texttemplate.New("text").Parse(
		`New contact form submission from {{.Site}}:

Name: {{.Name}}
Email: {{.Email}}
Subject: {{.Subject}}
Date: {{.Date}}

Message:
{{.Message}}
`))

	htmlBody = htmltemplate.Must(htmltemplate.New("html").Funcs(htmltemplate.FuncMap{
		"lines": func(s string) []string { return strings.Split(s, "\n") },
	}).Parse(
		`<h2>New contact form submission from {{.Site}}</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<h3>Message:</h3>
<p>{{range $i, $line := lines .Message}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
`))
)

// Sender delivers messages. *gomail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Config contains configuration for the notifier.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// To receives the notification. The From address is Username.
	To string

	// Location renders the submission date. Defaults to UTC.
	Location *time.Location

	// Site names the website in the message body.
	Site string

	// Timeout bounds connect and send. Defaults to 15s.
	Timeout time.Duration

	Logger *slog.Logger
}

// Notifier implements ports.Notifier by mailing each inquiry to the site owner.
type Notifier struct {
	sender   Sender
	from     string
	to       string
	site     string
	location *time.Location
	logger   *slog.Logger
}

// NewNotifier creates a notifier that authenticates with SMTP PLAIN over
// mandatory STARTTLS.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.To == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	return NewNotifierWithSender(client, cfg), nil
}

// NewNotifierWithSender creates a notifier that delivers through sender.
// Panics if sender is nil.
func NewNotifierWithSender(sender Sender, cfg Config) *Notifier {
	if sender == nil {
		panic("mail: sender is required")
	}

	location := cfg.Location
	if location == nil {
		location = time.UTC
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		sender:   sender,
		from:     cfg.Username,
		to:       cfg.To,
		site:     cfg.Site,
		location: location,
		logger:   logger,
	}
}

// messageData feeds both body templates.
type messageData struct {
	Site    string
	Name    string
	Email   string
	Subject string
	Date    string
	Message string
}

// Notify mails the inquiry. Failures are *domain.NotificationError.
func (n *Notifier) Notify(ctx context.Context, inquiry *domain.Inquiry) error {
	msg, err := n.buildMessage(inquiry)
	if err != nil {
		return domain.NewNotificationError(ChannelName, err)
	}

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return domain.NewNotificationError(ChannelName, err)
	}

	n.logger.InfoContext(ctx, "notification sent", slog.String("channel", ChannelName))

	return nil
}

func (n *Notifier) buildMessage(inquiry *domain.Inquiry) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}

	if err := msg.To(n.to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}

	// Reply-To is best effort.
	if err := msg.ReplyTo(inquiry.Email); err != nil {
		n.logger.Debug("reply-to skipped", slog.Any("error", err))
	}

	msg.Subject("New Contact Form Submission: " + inquiry.Subject)
	msg.SetDate()

	data := messageData{
		Site:    n.site,
		Name:    inquiry.Name,
		Email:   inquiry.Email,
		Subject: inquiry.Subject,
		Date:    inquiry.SubmittedAt.In(n.location).Format(dateLayout),
		Message: inquiry.Message,
	}

	if err := msg.SetBodyTextTemplate(textBody, data); err != nil {
		return nil, fmt.Errorf("text body: %w", err)
	}

	if err := msg.AddAlternativeHTMLTemplate(htmlBody, data); err != nil {
		return nil, fmt.Errorf("html body: %w", err)
	}

	return msg, nil
}
