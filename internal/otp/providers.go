// internal/otp/providers.go

package otp

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	gomail "gopkg.in/gomail.v2"

	"github.com/moodlyapp/moodly-backend/internal/config"
)

// EmailProvider delivers verification emails.
type EmailProvider interface {
	SendEmail(ctx context.Context, message *EmailMessage) error
}

// SMSProvider delivers verification texts.
type SMSProvider interface {
	SendSMS(ctx context.Context, message *SMSMessage) error
}

// NewEmailProvider picks the email backend from config.
func NewEmailProvider(cfg config.OTPConfig) EmailProvider {
	switch cfg.EmailProvider {
	case "sendgrid":
		return NewSendGridEmailProvider(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	case "smtp":
		return NewSMTPEmailProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailFromName)
	default:
		return NewMockEmailProvider()
	}
}

// NewSMSProvider picks the SMS backend from config.
func NewSMSProvider(cfg config.OTPConfig) SMSProvider {
	switch cfg.SMSProvider {
	case "twilio":
		return NewTwilioSMSProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	default:
		return NewMockSMSProvider()
	}
}

// SendGridEmailProvider sends through the SendGrid API.
type SendGridEmailProvider struct {
	apiKey   string
	from     string
	fromName string
}

func NewSendGridEmailProvider(apiKey, from, fromName string) EmailProvider {
	return &SendGridEmailProvider{apiKey: apiKey, from: from, fromName: fromName}
}

func (p *SendGridEmailProvider) SendEmail(ctx context.Context, message *EmailMessage) error {
	from := mail.NewEmail(p.fromName, p.from)
	to := mail.NewEmail("", message.To)
	email := mail.NewSingleEmail(from, message.Subject, to, message.Body, "")

	client := sendgrid.NewSendClient(p.apiKey)
	response, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email via sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// SMTPEmailProvider sends through a plain SMTP relay.
type SMTPEmailProvider struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPEmailProvider(host string, port int, username, password, from, fromName string) EmailProvider {
	return &SMTPEmailProvider{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     from,
		fromName: fromName,
	}
}

func (p *SMTPEmailProvider) SendEmail(ctx context.Context, message *EmailMessage) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(p.from, p.fromName))
	m.SetHeader("To", message.To)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.Body)

	if err := p.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return nil
}

// TwilioSMSProvider sends through the Twilio REST API.
type TwilioSMSProvider struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMSProvider(accountSID, authToken, from string) SMSProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSProvider{client: client, from: from}
}

func (p *TwilioSMSProvider) SendSMS(ctx context.Context, message *SMSMessage) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(message.To)
	params.SetFrom(p.from)
	params.SetBody(message.Body)

	if _, err := p.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send sms via twilio: %w", err)
	}
	return nil
}

// MockEmailProvider records emails instead of sending them. Used in
// development and in tests.
type MockEmailProvider struct {
	SentEmails []EmailMessage
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{SentEmails: make([]EmailMessage, 0)}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, message *EmailMessage) error {
	p.SentEmails = append(p.SentEmails, *message)
	logrus.WithFields(logrus.Fields{"to": message.To, "subject": message.Subject}).Info("mock email sent")
	return nil
}

// MockSMSProvider records texts instead of sending them.
type MockSMSProvider struct {
	SentMessages []SMSMessage
}

func NewMockSMSProvider() *MockSMSProvider {
	return &MockSMSProvider{SentMessages: make([]SMSMessage, 0)}
}

func (p *MockSMSProvider) SendSMS(ctx context.Context, message *SMSMessage) error {
	p.SentMessages = append(p.SentMessages, *message)
	logrus.WithField("to", message.To).Info("mock sms sent")
	return nil
}
