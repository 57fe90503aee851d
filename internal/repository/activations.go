package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"prepbot/internal/domain"
)

const (
	pkPrefixActivation = "PAY#"
	skRecord           = "ACTIVATION#"
	ttlDuration        = 365 * 24 * time.Hour // audit trail kept for one year
)

// ErrDuplicateActivation marks a replayed callback whose request id was
// already recorded. Callers treat the replay as success.
var ErrDuplicateActivation = errors.New("repository: activation already recorded")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client wraps a DynamoDB table for plan-activation records.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// activationPK returns the partition key for a payment request id.
func activationPK(requestID string) string {
	return pkPrefixActivation + requestID
}

// ttlValue returns a Unix timestamp one year in the future.
func ttlValue(now time.Time) int64 {
	return now.Add(ttlDuration).Unix()
}

// RecordActivation persists one verified activation, keyed by the provider's
// request id so a replayed callback cannot double-record. A key collision is
// reported as ErrDuplicateActivation.
func (c *Client) RecordActivation(ctx context.Context, act domain.PlanActivation) error {
	if act.ID == "" {
		return errors.New("repository: RecordActivation: id is required")
	}
	if act.RequestID == "" {
		return errors.New("repository: RecordActivation: request id is required")
	}
	if act.TTL == 0 {
		act.TTL = ttlValue(act.ReceivedAt)
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                activationItem(act),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrDuplicateActivation
		}
		return fmt.Errorf("repository: RecordActivation: %w", err)
	}
	return nil
}

// GetActivation fetches the activation recorded for a request id, if any.
func (c *Client) GetActivation(ctx context.Context, requestID string) (domain.PlanActivation, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: activationPK(requestID)},
			"SK": &types.AttributeValueMemberS{Value: skRecord},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.PlanActivation{}, false, fmt.Errorf("repository: GetActivation: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.PlanActivation{}, false, nil
	}

	act, err := itemToActivation(out.Item)
	if err != nil {
		return domain.PlanActivation{}, false, fmt.Errorf("repository: GetActivation decode: %w", err)
	}
	return act, true, nil
}

func activationItem(act domain.PlanActivation) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: activationPK(act.RequestID)},
		"SK":         &types.AttributeValueMemberS{Value: skRecord},
		"id":         &types.AttributeValueMemberS{Value: act.ID},
		"resourceId": &types.AttributeValueMemberS{Value: act.ResourceID},
		"requestId":  &types.AttributeValueMemberS{Value: act.RequestID},
		"receivedAt": &types.AttributeValueMemberS{Value: act.ReceivedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", act.TTL)},
	}
}

func itemToActivation(item map[string]types.AttributeValue) (domain.PlanActivation, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.PlanActivation{}, err
	}
	resourceID, _ := strAttr(item, "resourceId") // allow empty
	requestID, err := strAttr(item, "requestId")
	if err != nil {
		return domain.PlanActivation{}, err
	}
	receivedRaw, err := strAttr(item, "receivedAt")
	if err != nil {
		return domain.PlanActivation{}, err
	}
	receivedAt, err := time.Parse(time.RFC3339Nano, receivedRaw)
	if err != nil {
		return domain.PlanActivation{}, fmt.Errorf("repository: parse receivedAt: %w", err)
	}

	return domain.PlanActivation{
		ID:         id,
		ResourceID: resourceID,
		RequestID:  requestID,
		ReceivedAt: receivedAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
