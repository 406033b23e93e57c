package notification

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

type noticeTemplate struct {
	Subject string
	Text    string
}

var noticeTemplates = map[NoticeType]noticeTemplate{
	WelcomeNotice: {
		Subject: "Welcome to Reddit Manager",
		Text: "Hi {{.name}},\n\n" +
			"Your account is ready. Link your Reddit accounts from the dashboard to start tracking karma.\n",
	},
	AccountLinkedNotice: {
		Subject: "Reddit account connected",
		Text: "Hi,\n\n" +
			"The Reddit account u/{{.reddit_username}} was connected to your profile.\n" +
			"If this wasn't you, review your connected accounts now.\n",
	},
}

// EmailNotifier sends notices over SMTP.
type EmailNotifier struct {
	config SMTPConfig
	client *mail.Client
}

func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
	}

	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if !config.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	slog.Info("Creating mail client", "host", config.Host, "port", config.Port)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &EmailNotifier{config: config, client: client}, nil
}

func (e *EmailNotifier) Send(noticeType NoticeType, notification NotificationData) error {
	if notification.To == "" {
		return fmt.Errorf("email notification requires 'To' address")
	}

	tpl, ok := noticeTemplates[noticeType]
	if !ok {
		return fmt.Errorf("unknown notice type: %s", noticeType)
	}

	tmpl, err := template.New(string(noticeType)).Parse(tpl.Text)
	if err != nil {
		return fmt.Errorf("failed to parse notice template: %w", err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, notification.Data); err != nil {
		return fmt.Errorf("failed to render notice template: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(e.config.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(notification.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(tpl.Subject)
	msg.SetBodyString(mail.TypeTextPlain, body.String())

	if err := e.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Notice sent", "type", noticeType, "to", notification.To)
	return nil
}
