package dynamodb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"moviedb/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type LoginAttemptRepository struct {
	client API
	table  string
	ready  atomic.Bool
}

type loginAttemptItem struct {
	Email       string `dynamodbav:"email"`
	FailedCount int    `dynamodbav:"failed_count"`
	// RFC 3339, absent when not jailed.
	JailedUntil string `dynamodbav:"jailed_until,omitempty"`
}

func NewLoginAttemptRepository(client API, table string) *LoginAttemptRepository {
	return &LoginAttemptRepository{
		client: client,
		table:  table,
	}
}

func (r *LoginAttemptRepository) ensure(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	if err := ensureTable(ctx, r.client, r.table, "email"); err != nil {
		return err
	}
	r.ready.Store(true)
	return nil
}

func (r *LoginAttemptRepository) Get(ctx context.Context, email string) (auth.LoginAttempt, error) {
	if err := r.ensure(ctx); err != nil {
		return auth.LoginAttempt{}, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return auth.LoginAttempt{}, fmt.Errorf("dynamodb: get login attempt: %w", err)
	}
	if len(out.Item) == 0 {
		return auth.LoginAttempt{}, nil
	}

	var item loginAttemptItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return auth.LoginAttempt{}, fmt.Errorf("dynamodb: unmarshal login attempt: %w", err)
	}

	attempt := auth.LoginAttempt{FailedCount: item.FailedCount}
	if item.JailedUntil != "" {
		parsed, err := time.Parse(time.RFC3339Nano, item.JailedUntil)
		if err != nil {
			return auth.LoginAttempt{}, fmt.Errorf("dynamodb: parse jailed_until: %w", err)
		}
		attempt.JailedUntil = parsed.UTC()
	}
	return attempt, nil
}

func (r *LoginAttemptRepository) Save(ctx context.Context, email string, attempt auth.LoginAttempt) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	item := loginAttemptItem{Email: email, FailedCount: attempt.FailedCount}
	if !attempt.JailedUntil.IsZero() {
		item.JailedUntil = attempt.JailedUntil.UTC().Format(time.RFC3339Nano)
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamodb: marshal login attempt: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      av,
	}); err != nil {
		return fmt.Errorf("dynamodb: put login attempt: %w", err)
	}
	return nil
}

func (r *LoginAttemptRepository) Reset(ctx context.Context, email string) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.table,
		Key:       emailKey(email),
	}); err != nil {
		return fmt.Errorf("dynamodb: delete login attempt: %w", err)
	}
	return nil
}
