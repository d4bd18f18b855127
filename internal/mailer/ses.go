package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SESConfig holds Amazon SES settings
type SESConfig struct {
	Region    string
	FromEmail string
	FromName  string
}

// sesAPI is the subset of the SES v2 client the transport calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport sends mail via Amazon SES
type SESTransport struct {
	client    sesAPI
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewSESTransport loads the default AWS configuration for cfg.Region and creates an SES client
func NewSESTransport(ctx context.Context, cfg SESConfig, logger *zap.Logger) (*SESTransport, error) {
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("mailer: SES_FROM_EMAIL is required for the ses transport")
	}

	logger.Debug("initializing SES transport",
		zap.String("region", cfg.Region),
		zap.String("from_email", cfg.FromEmail),
	)

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("SES transport enabled", zap.String("from", cfg.FromEmail), zap.String("region", cfg.Region))
	return newSESTransport(sesv2.NewFromConfig(awsCfg), cfg, logger), nil
}

func newSESTransport(client sesAPI, cfg SESConfig, logger *zap.Logger) *SESTransport {
	return &SESTransport{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (t *SESTransport) Name() string { return KindSES }

func (t *SESTransport) Send(ctx context.Context, msg Message) (string, error) {
	if msg.From == "" {
		msg.From = FormatAddress(t.fromName, t.fromEmail)
	}
	if err := validate(msg); err != nil {
		return "", err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(msg.Text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	t.logger.Debug("calling SES SendEmail", zap.String("to", msg.To), zap.String("subject", msg.Subject))

	result, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	messageID := aws.ToString(result.MessageId)
	t.logger.Info("mail sent", zap.String("message_id", messageID), zap.String("to", msg.To))
	return messageID, nil
}
