package slots

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

type dynamoAPI interface {
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var dynamoOps = map[Op]string{OpEq: "=", OpGte: ">=", OpLte: "<=", OpGt: ">", OpLt: "<"}

// DynamoStore reads slots from a DynamoDB table with filtered scans. The
// collection argument names the table.
type DynamoStore struct {
	client dynamoAPI
	logger *logging.Logger
	// maxPages bounds a single query; 0 means unbounded.
	maxPages int
}

func NewDynamoStore(client dynamoAPI, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("slots: dynamodb client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, logger: logger, maxPages: 50}
}

func (s *DynamoStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	input, err := buildScan(collection, filters)
	if err != nil {
		return nil, err
	}

	var out []Slot
	for page := 0; s.maxPages == 0 || page < s.maxPages; page++ {
		resp, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("slots: dynamodb scan %s: %w", collection, err)
		}
		var batch []Slot
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &batch); err != nil {
			return nil, fmt.Errorf("slots: unmarshal slots: %w", err)
		}
		out = append(out, batch...)
		// Without an ordering the first limit matches are as good as any.
		if orderBy == nil && limit > 0 && len(out) >= limit {
			break
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}

	if orderBy != nil {
		if _, ok := fieldValue(Slot{}, orderBy.Field); !ok {
			return nil, fmt.Errorf("%w: order field %q", ErrUnsupportedQuery, orderBy.Field)
		}
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := fieldValue(out[i], orderBy.Field)
			b, _ := fieldValue(out[j], orderBy.Field)
			if orderBy.Desc {
				return compare(a, b) > 0
			}
			return compare(a, b) < 0
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	s.logger.Debug("dynamodb slot query", "table", collection, "filters", len(filters), "results", len(out))
	return out, nil
}

func buildScan(table string, filters []Filter) (*dynamodb.ScanInput, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: empty table name", ErrUnsupportedQuery)
	}
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if len(filters) == 0 {
		return input, nil
	}

	names := make(map[string]string, len(filters))
	values := make(map[string]types.AttributeValue, len(filters))
	clauses := make([]string, 0, len(filters))
	for i, f := range filters {
		if _, ok := fieldValue(Slot{}, f.Field); !ok {
			return nil, fmt.Errorf("%w: field %q", ErrUnsupportedQuery, f.Field)
		}
		op, ok := dynamoOps[f.Op]
		if !ok {
			return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedQuery, f.Op)
		}
		av, err := attributevalue.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("slots: marshal filter %s: %w", f.Field, err)
		}
		name := fmt.Sprintf("#f%d", i)
		value := fmt.Sprintf(":v%d", i)
		names[name] = f.Field
		values[value] = av
		clauses = append(clauses, name+" "+op+" "+value)
	}
	input.FilterExpression = aws.String(strings.Join(clauses, " AND "))
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values
	return input, nil
}
