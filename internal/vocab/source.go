package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// maxOverrideBytes caps the override document size.
const maxOverrideBytes = 1 << 20

// Load builds the vocabulary from the defaults plus an optional override
// document. source may be empty (defaults only), a local file path, or an
// s3://bucket/key URL, in which case client must be non-nil.
func Load(ctx context.Context, source string, client s3API) (*Vocabulary, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Default(), nil
	}

	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(source, "s3://") {
		raw, err = readS3(ctx, client, source)
	} else {
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("vocab: read %s: %w", source, err)
	}

	var o Override
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("vocab: decode %s: %w", source, err)
	}
	return Default().Merge(o), nil
}

func readS3(ctx context.Context, client s3API, source string) ([]byte, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client not configured")
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(source, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 url %q", source)
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(io.LimitReader(out.Body, maxOverrideBytes))
}
