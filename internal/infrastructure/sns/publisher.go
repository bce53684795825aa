package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-credential-api/internal/pkg/mail"
)

// PublishAPI is the subset of the SNS client the publisher uses.
type PublishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher hands verification links to an SNS topic. A subscriber (mail
// worker, Lambda) is responsible for the actual delivery.
type Publisher struct {
	client   PublishAPI
	topicARN string
}

// verificationMessage is the JSON body published to the topic.
type verificationMessage struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Link    string `json:"link"`
}

func NewPublisher(awsCfg aws.Config, topicARN string) (*Publisher, error) {
	return newPublisher(sns.NewFromConfig(awsCfg), topicARN)
}

func newPublisher(client PublishAPI, topicARN string) (*Publisher, error) {
	if topicARN == "" {
		return nil, errors.New("sns topic arn is required")
	}
	return &Publisher{client: client, topicARN: topicARN}, nil
}

func (p *Publisher) SendVerification(ctx context.Context, to, link string) error {
	body, err := json.Marshal(verificationMessage{
		Type:    "email_verification",
		To:      to,
		Subject: mail.VerificationSubject,
		Link:    link,
	})
	if err != nil {
		return fmt.Errorf("marshal sns message: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String("email_verification")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
