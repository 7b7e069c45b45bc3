package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/finchworks/gatehouse/pkg/logger"
)

// AlertService emails the security distribution list when the defense layer
// takes a high-severity action. Sends happen in a detached goroutine: an
// alert must never slow down or fail the lockout that triggered it.
type AlertService struct {
	sesClient   *ses.Client
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewAlertService creates an SES-backed alert service.
func NewAlertService(region, fromAddress, toAddress string, log *slog.Logger) (*AlertService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AlertService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		toAddress:   toAddress,
		logger:      log,
	}, nil
}

// AccountLocked notifies the security list that an account was locked after
// repeated failures.
func (s *AlertService) AccountLocked(ctx context.Context, email, ipAddress, reason string) {
	subject := "Security alert: account locked"
	body := fmt.Sprintf(
		"Account %s was locked at %s.\n\nReason: %s\nOrigin IP: %s\n\n"+
			"The origin IP is temporarily blocked. The account stays locked until an administrator unlocks it.\n",
		logger.SanitizedEmail(email), time.Now().UTC().Format(time.RFC3339), reason, ipAddress,
	)
	s.send(ctx, subject, body)
}

// DegradedMode notifies the security list that a guard is failing open.
func (s *AlertService) DegradedMode(ctx context.Context, component, detail string) {
	subject := "Security alert: degraded mode"
	body := fmt.Sprintf("Component %s is operating in degraded mode.\n\nDetail: %s\n", component, detail)
	s.send(ctx, subject, body)
}

func (s *AlertService) send(ctx context.Context, subject, body string) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		_, err := s.sesClient.SendEmail(sendCtx, &ses.SendEmailInput{
			Source: aws.String(s.fromAddress),
			Destination: &types.Destination{
				ToAddresses: []string{s.toAddress},
			},
			Message: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		})
		if err != nil {
			s.logger.Error("failed to send security alert", slog.Any("error", err))
			return
		}
		s.logger.Info("security alert sent", slog.String("subject", subject))
	}()
}
