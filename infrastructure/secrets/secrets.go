// Package secrets resolves the cipher secrets from Secrets Manager or the
// environment.
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/goccy/go-json"
)

// ErrMissingSecrets is returned when neither a secret id nor both values
// are configured.
var ErrMissingSecrets = errors.New("cipher secrets are not configured")

// GetSecretValueAPI is the subset of the Secrets Manager API the loader uses.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var _ GetSecretValueAPI = (*secretsmanager.Client)(nil)

// CipherSecrets are the two inputs the field cipher derives its key and IV
// from.
type CipherSecrets struct {
	SecretKey string `json:"secretKey"`
	SecretIV  string `json:"secretIV"`
}

// Source says where the secrets come from. SecretID takes precedence over
// the inline values.
type Source struct {
	SecretID  string
	SecretKey string
	SecretIV  string
}

// Load resolves the secrets. client may be nil when SecretID is empty.
func Load(ctx context.Context, client GetSecretValueAPI, src Source) (CipherSecrets, error) {
	if src.SecretID == "" {
		if src.SecretKey == "" || src.SecretIV == "" {
			return CipherSecrets{}, ErrMissingSecrets
		}
		return CipherSecrets{SecretKey: src.SecretKey, SecretIV: src.SecretIV}, nil
	}
	if client == nil {
		return CipherSecrets{}, fmt.Errorf("secret %s: no Secrets Manager client", src.SecretID)
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(src.SecretID),
	})
	if err != nil {
		return CipherSecrets{}, fmt.Errorf("failed to read secret %s: %w", src.SecretID, err)
	}

	var s CipherSecrets
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &s); err != nil {
		return CipherSecrets{}, fmt.Errorf("secret %s is not valid JSON: %w", src.SecretID, err)
	}
	if s.SecretKey == "" || s.SecretIV == "" {
		return CipherSecrets{}, fmt.Errorf("secret %s: %w", src.SecretID, ErrMissingSecrets)
	}
	return s, nil
}
