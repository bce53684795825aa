package dynamo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-credential-api/internal/domain"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a SET clause, followed by
// a REMOVE clause for the given fields. Keys are sorted so the output is stable.
func buildUpdateExpr(set map[string]interface{}, remove ...string) (updateExpr, error) {
	ue := updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		if i == 0 {
			b.WriteString("SET ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = %s", nameKey, valueKey)
	}
	for i, k := range remove {
		nameKey := fmt.Sprintf("#r%d", i)
		ue.Names[nameKey] = k
		if i == 0 {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString("REMOVE ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(nameKey)
	}
	if b.Len() == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}
	ue.Expr = b.String()
	return ue, nil
}

func mergeNames(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func mergeValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// translateTxErr maps a failed condition inside a transaction to domain.ErrConflict.
// Throttling and TransactionConflict stay as-is: they are retryable, not lost races.
func translateTxErr(err error) error {
	if err == nil {
		return nil
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return fmt.Errorf("condition failed: %w", domain.ErrConflict)
			}
		}
		return err
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("condition failed: %w", domain.ErrConflict)
	}
	return err
}
