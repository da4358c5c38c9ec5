package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/pkg/errors"
	Logger "github.com/sparksblog/sparks/utils/log"
)

// Mailer delivers the one-time sign-in link to an address.
type Mailer interface {
	SendLink(ctx context.Context, email string, link string) error
}

const signInSubject = "Your Sparks sign-in link"

func signInBody(link string) string {
	return fmt.Sprintf("Follow this link to sign in to Sparks:\n\n%s\n\nThe link can be used once and expires shortly.", link)
}

// SESMailer sends the link through AWS SES.
type SESMailer struct {
	client *ses.SES
	from   string
}

// NewSESMailer initializes a SES client with aws config located in path
// ~/.aws/config. The sender address comes from MAIL_FROM.
func NewSESMailer() (*SESMailer, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to create aws session")
	}

	from := os.Getenv("MAIL_FROM")
	if from == "" {
		return nil, errors.New("MAIL_FROM is required for the SES mailer")
	}
	return &SESMailer{client: ses.New(sess), from: from}, nil
}

func (m *SESMailer) SendLink(ctx context.Context, email string, link string) error {
	_, err := m.client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(m.from),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(email)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(signInSubject)},
			Body: &ses.Body{
				Text: &ses.Content{Data: aws.String(signInBody(link))},
			},
		},
	})
	return errors.Wrapf(err, "fail to send sign-in link to %s", email)
}

// LogMailer prints the link instead of sending it. Development only.
type LogMailer struct{}

func (LogMailer) SendLink(ctx context.Context, email string, link string) error {
	Logger.Log.Info("sign-in link for ", email, ": ", link)
	return nil
}
