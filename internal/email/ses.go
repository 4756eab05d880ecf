package email

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI is the subset of the SES client used here
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newEmailService(ses.NewFromConfig(cfg), fromEmail, fromName, baseURL), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, baseURL string) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}
}

// CheckAccess verifies the credentials can reach SES.
func (e *EmailService) CheckAccess(ctx context.Context) error {
	if _, err := e.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return fmt.Errorf("cannot reach SES: %w", err)
	}
	return nil
}

// NotificationEmail is the content of a notification mirrored to email
type NotificationEmail struct {
	ToEmail     string
	ToName      string
	Title       string
	Message     string
	Destination string // app path, may be empty
}

// SendNotificationEmail mirrors an in-app notification to the recipient's inbox
func (e *EmailService) SendNotificationEmail(ctx context.Context, n NotificationEmail) error {
	link := e.baseURL + "/notifications"
	if n.Destination != "" {
		link = e.baseURL + n.Destination
	}

	greeting := "Ciao"
	if n.ToName != "" {
		greeting = "Ciao " + n.ToName
	}

	htmlBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.button { display: inline-block; padding: 12px 24px; background-color: #2341F0; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
			</style>
		</head>
		<body>
			<div class="container">
				<p>%s,</p>
				<h2>%s</h2>
				<p>%s</p>
				<a href="%s" class="button">Apri Sprinta</a>
				<hr>
				<p style="color: #999; font-size: 12px;">Puoi disattivare queste email dalle preferenze notifiche.</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(greeting), html.EscapeString(n.Title), html.EscapeString(n.Message), html.EscapeString(link))

	textBody := fmt.Sprintf("%s,\n\n%s\n\n%s\n\n%s\n", greeting, n.Title, n.Message, link)

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{n.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(n.Title),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}
