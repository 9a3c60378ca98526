package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"moviedb/user"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserRepository keeps users and their refresh session in one item per
// email. Session changes are conditional writes on the expected session.
type UserRepository struct {
	client API
	table  string
	ready  atomic.Bool
}

type userItem struct {
	Email        string  `dynamodbav:"email"`
	PasswordHash string  `dynamodbav:"password_hash"`
	FirstName    *string `dynamodbav:"first_name,omitempty"`
	LastName     *string `dynamodbav:"last_name,omitempty"`
	DOB          *string `dynamodbav:"dob,omitempty"`
	Address      *string `dynamodbav:"address,omitempty"`
	RefreshIat   *int64  `dynamodbav:"refresh_iat,omitempty"`
	RefreshExp   *int64  `dynamodbav:"refresh_exp,omitempty"`
	RefreshJti   *string `dynamodbav:"refresh_jti,omitempty"`
}

func NewUserRepository(client API, table string) *UserRepository {
	return &UserRepository{
		client: client,
		table:  table,
	}
}

func (r *UserRepository) EnsureTable(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	if err := ensureTable(ctx, r.client, r.table, "email"); err != nil {
		return err
	}
	r.ready.Store(true)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := r.EnsureTable(ctx); err != nil {
		return user.User{}, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return user.User{}, fmt.Errorf("dynamodb: get user: %w", err)
	}
	if len(out.Item) == 0 {
		return user.User{}, user.ErrUserNotFound
	}
	return decodeUser(out.Item)
}

func (r *UserRepository) CreateUser(ctx context.Context, u user.User) error {
	if err := validateTable(r.table); err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(userItem{Email: u.Email, PasswordHash: u.PasswordHash})
	if err != nil {
		return fmt.Errorf("dynamodb: marshal user: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.table,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return user.ErrUserExists
		}
		return fmt.Errorf("dynamodb: put user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, p user.ProfileUpdate) (user.User, error) {
	if err := validateTable(r.table); err != nil {
		return user.User{}, err
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &r.table,
		Key:                 emailKey(email),
		UpdateExpression:    aws.String("SET first_name = :fn, last_name = :ln, dob = :dob, address = :addr"),
		ConditionExpression: aws.String("attribute_exists(email)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fn":   &types.AttributeValueMemberS{Value: p.FirstName},
			":ln":   &types.AttributeValueMemberS{Value: p.LastName},
			":dob":  &types.AttributeValueMemberS{Value: p.DOB},
			":addr": &types.AttributeValueMemberS{Value: p.Address},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("dynamodb: update profile: %w", err)
	}
	return decodeUser(out.Attributes)
}

func (r *UserRepository) StartSession(ctx context.Context, email string, s user.Session) error {
	in := sessionUpdate(r.table, email, s)
	in.ConditionExpression = aws.String("attribute_exists(email)")

	if _, err := r.client.UpdateItem(ctx, in); err != nil {
		if isConditionFailed(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("dynamodb: start session: %w", err)
	}
	return nil
}

func (r *UserRepository) RotateSession(ctx context.Context, email string, expected, next user.Session) error {
	return r.swapSession(ctx, email, expected, next)
}

func (r *UserRepository) EndSession(ctx context.Context, email string, expected user.Session) error {
	return r.swapSession(ctx, email, expected, user.Session{})
}

func (r *UserRepository) swapSession(ctx context.Context, email string, expected, next user.Session) error {
	if expected.IsZero() {
		return user.ErrStaleSession
	}

	in := sessionUpdate(r.table, email, next)
	in.ConditionExpression = aws.String("refresh_iat = :eiat AND refresh_exp = :eexp AND refresh_jti = :ejti")
	if in.ExpressionAttributeValues == nil {
		in.ExpressionAttributeValues = map[string]types.AttributeValue{}
	}
	in.ExpressionAttributeValues[":eiat"] = numberValue(expected.IssuedAt)
	in.ExpressionAttributeValues[":eexp"] = numberValue(expected.ExpiresAt)
	in.ExpressionAttributeValues[":ejti"] = &types.AttributeValueMemberS{Value: expected.ID}

	if _, err := r.client.UpdateItem(ctx, in); err != nil {
		if isConditionFailed(err) {
			return user.ErrStaleSession
		}
		return fmt.Errorf("dynamodb: swap session: %w", err)
	}
	return nil
}

// sessionUpdate writes s, or removes the session attributes for the zero
// session.
func sessionUpdate(table, email string, s user.Session) *dynamodb.UpdateItemInput {
	in := &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key:       emailKey(email),
	}
	if s.IsZero() {
		in.UpdateExpression = aws.String("REMOVE refresh_iat, refresh_exp, refresh_jti")
		return in
	}
	in.UpdateExpression = aws.String("SET refresh_iat = :iat, refresh_exp = :exp, refresh_jti = :jti")
	in.ExpressionAttributeValues = map[string]types.AttributeValue{
		":iat": numberValue(s.IssuedAt),
		":exp": numberValue(s.ExpiresAt),
		":jti": &types.AttributeValueMemberS{Value: s.ID},
	}
	return in
}

func numberValue(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func decodeUser(av map[string]types.AttributeValue) (user.User, error) {
	var item userItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return user.User{}, fmt.Errorf("dynamodb: unmarshal user: %w", err)
	}

	u := user.User{
		Email:        item.Email,
		PasswordHash: item.PasswordHash,
		FirstName:    item.FirstName,
		LastName:     item.LastName,
		DOB:          item.DOB,
		Address:      item.Address,
	}
	if item.RefreshIat != nil && item.RefreshExp != nil && item.RefreshJti != nil {
		u.Session = user.Session{
			IssuedAt:  *item.RefreshIat,
			ExpiresAt: *item.RefreshExp,
			ID:        *item.RefreshJti,
		}
	}
	return u, nil
}
