package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"starlight-postoffice/internal/domain"
)

const (
	skState     = "STATE#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Client keeps one item per visitor in a DynamoDB table. The whole session is
// stored as a JSON document next to a few queryable attributes.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// sessionPK returns the DynamoDB partition key for a visitor.
func sessionPK(identity string) string {
	return "SESSION#" + identity
}

func (c *Client) key(identity string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sessionPK(identity)},
		"SK": &types.AttributeValueMemberS{Value: skState},
	}
}

// Load reads the session of identity.
func (c *Client) Load(ctx context.Context, identity string) (*domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.key(identity),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Load get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	state, err := strAttr(out.Item, "state")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decodeSession([]byte(state), identity)
}

// Save overwrites the stored session.
func (c *Client) Save(ctx context.Context, s *domain.Session) error {
	if s == nil || s.Identity == "" {
		return errors.New("repository: Save: session identity is required")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("repository: Save marshal: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      c.sessionItem(s, raw),
	})
	if err != nil {
		return fmt.Errorf("repository: Save: %w", err)
	}
	return nil
}

// Delete removes the stored session. Deleting a missing session is not an error.
func (c *Client) Delete(ctx context.Context, identity string) error {
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.key(identity),
	})
	if err != nil {
		return fmt.Errorf("repository: Delete: %w", err)
	}
	return nil
}

func (c *Client) sessionItem(s *domain.Session, raw []byte) map[string]types.AttributeValue {
	now := c.now().UTC()
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: sessionPK(s.Identity)},
		"SK":           &types.AttributeValueMemberS{Value: skState},
		"identity":     &types.AttributeValueMemberS{Value: s.Identity},
		"phase":        &types.AttributeValueMemberS{Value: string(s.Phase)},
		"room":         &types.AttributeValueMemberS{Value: s.Room},
		"turns":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", len(s.Turns))},
		"state":        &types.AttributeValueMemberS{Value: string(raw)},
		"lastActivity": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ttl":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(ttlDuration).Unix())},
	}
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
