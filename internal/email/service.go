package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrServiceDisabled = errors.New("email service disabled")

// Service sends transactional mail through AWS SES. With no from
// address configured the service is disabled and every send fails
// with ErrServiceDisabled.
type Service struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

func NewService(ctx context.Context, awsRegion, fromAddress, fromName string) (*Service, error) {
	if fromAddress == "" {
		log.Warn("email service: no from address configured, sending disabled")
		return &Service{}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Service{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *Service) Enabled() bool {
	return s.client != nil && s.fromAddress != ""
}

func (s *Service) Send(ctx context.Context, to []string, subject, htmlBody string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "email.send")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("email.recipients", len(to)))

	if !s.Enabled() {
		return ErrServiceDisabled
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	from := s.fromAddress
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	_, err = s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data: aws.String(subject),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data: aws.String(htmlBody),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}

	log.Debugf("email [%s] sent to %d recipients", subject, len(to))

	return nil
}
