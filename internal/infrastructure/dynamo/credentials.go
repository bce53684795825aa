package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-credential-api/internal/domain"
)

// API is the subset of the DynamoDB client the credential repo uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// CredentialRepo persists credentials across two tables:
//   - credentials (PK: credential_id, GSI: confirmation_token-index)
//   - credential_emails (PK: email), one guard row per email
//
// Every write goes through TransactWriteItems with conditions on both tables,
// so two signups for one email or two confirms of one token cannot both commit.
type CredentialRepo struct {
	client      API
	table       string
	guardsTable string
}

func NewCredentialRepo(client API, table, guardsTable string) *CredentialRepo {
	return &CredentialRepo{client: client, table: table, guardsTable: guardsTable}
}

// GetByEmail resolves the email guard and then the credential it points to.
// Both reads are strongly consistent.
func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.guardsTable),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("credential not found: %w", domain.ErrNotFound)
	}
	var g domain.EmailGuard
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, err
	}
	return r.get(ctx, g.CredentialID)
}

// GetByToken looks up an unverified credential via the sparse token GSI.
func (r *CredentialRepo) GetByToken(ctx context.Context, token string) (*domain.Credential, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(indexConfirmationToken),
		KeyConditionExpression:    aws.String("#t = :t"),
		ExpressionAttributeNames:  map[string]string{"#t": fieldConfirmationToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": &types.AttributeValueMemberS{Value: token}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("credential not found: %w", domain.ErrNotFound)
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepo) get(ctx context.Context, credentialID string) (*domain.Credential, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            strKey(fieldCredentialID, credentialID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("credential not found: %w", domain.ErrNotFound)
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert stores a new credential and claims its email.
// Returns domain.ErrConflict when the email is already claimed.
func (r *CredentialRepo) Insert(ctx context.Context, c *domain.Credential) error {
	items, err := r.insertItems(c)
	if err != nil {
		return err
	}
	return r.commit(ctx, items)
}

// Replace deletes the stale unverified credential and stores fresh in its
// place, as one transaction. Returns domain.ErrConflict when stale was
// verified or replaced in the meantime.
func (r *CredentialRepo) Replace(ctx context.Context, stale, fresh *domain.Credential) error {
	items, err := r.replaceItems(stale, fresh)
	if err != nil {
		return err
	}
	return r.commit(ctx, items)
}

// MarkVerified flips the credential to verified and drops its token, provided
// the stored token still equals token. Returns domain.ErrConflict otherwise.
func (r *CredentialRepo) MarkVerified(ctx context.Context, c *domain.Credential, token string) error {
	items, err := r.verifyItems(c, token)
	if err != nil {
		return err
	}
	return r.commit(ctx, items)
}

func (r *CredentialRepo) commit(ctx context.Context, items []types.TransactWriteItem) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return translateTxErr(err)
}

func (r *CredentialRepo) insertItems(c *domain.Credential) ([]types.TransactWriteItem, error) {
	guard, err := r.putGuard(c, aws.String("attribute_not_exists(#e)"), map[string]string{"#e": fieldEmail}, nil)
	if err != nil {
		return nil, err
	}
	cred, err := r.putCredential(c)
	if err != nil {
		return nil, err
	}
	return []types.TransactWriteItem{guard, cred}, nil
}

func (r *CredentialRepo) replaceItems(stale, fresh *domain.Credential) ([]types.TransactWriteItem, error) {
	if stale.Email != fresh.Email {
		return nil, fmt.Errorf("replace across emails: %w", domain.ErrBadRequest)
	}
	del := types.TransactWriteItem{Delete: &types.Delete{
		TableName:           aws.String(r.table),
		Key:                 strKey(fieldCredentialID, stale.ID),
		ConditionExpression: aws.String("#v = :f AND #t = :tok"),
		ExpressionAttributeNames: map[string]string{
			"#v": fieldIsVerified,
			"#t": fieldConfirmationToken,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":tok": &types.AttributeValueMemberS{Value: stale.ConfirmationToken},
		},
	}}
	guard, err := r.putGuard(fresh,
		aws.String("#cid = :old AND #v = :f"),
		map[string]string{"#cid": fieldCredentialID, "#v": fieldIsVerified},
		map[string]types.AttributeValue{
			":old": &types.AttributeValueMemberS{Value: stale.ID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
	)
	if err != nil {
		return nil, err
	}
	cred, err := r.putCredential(fresh)
	if err != nil {
		return nil, err
	}
	return []types.TransactWriteItem{del, guard, cred}, nil
}

func (r *CredentialRepo) verifyItems(c *domain.Credential, token string) ([]types.TransactWriteItem, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsVerified: true}, fieldConfirmationToken)
	if err != nil {
		return nil, err
	}
	cred := types.TransactWriteItem{Update: &types.Update{
		TableName:           aws.String(r.table),
		Key:                 strKey(fieldCredentialID, c.ID),
		UpdateExpression:    aws.String(ue.Expr),
		ConditionExpression: aws.String("#t = :tok AND #v = :f"),
		ExpressionAttributeNames: mergeNames(ue.Names, map[string]string{
			"#t": fieldConfirmationToken,
			"#v": fieldIsVerified,
		}),
		ExpressionAttributeValues: mergeValues(ue.Values, map[string]types.AttributeValue{
			":tok": &types.AttributeValueMemberS{Value: token},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		}),
	}}

	gue, err := buildUpdateExpr(map[string]interface{}{fieldIsVerified: true})
	if err != nil {
		return nil, err
	}
	guard := types.TransactWriteItem{Update: &types.Update{
		TableName:                aws.String(r.guardsTable),
		Key:                      strKey(fieldEmail, c.Email),
		UpdateExpression:         aws.String(gue.Expr),
		ConditionExpression:      aws.String("#cid = :id"),
		ExpressionAttributeNames: mergeNames(gue.Names, map[string]string{"#cid": fieldCredentialID}),
		ExpressionAttributeValues: mergeValues(gue.Values, map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: c.ID},
		}),
	}}
	return []types.TransactWriteItem{cred, guard}, nil
}

func (r *CredentialRepo) putCredential(c *domain.Credential) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal credential: %w", err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldCredentialID},
	}}, nil
}

func (r *CredentialRepo) putGuard(c *domain.Credential, cond *string, names map[string]string, values map[string]types.AttributeValue) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(domain.EmailGuard{
		Email:        c.Email,
		CredentialID: c.ID,
		IsVerified:   c.IsVerified,
	})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal email guard: %w", err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                 aws.String(r.guardsTable),
		Item:                      item,
		ConditionExpression:       cond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}}, nil
}
