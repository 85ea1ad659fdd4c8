package owlet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/rs/zerolog/log"
)

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsSource reads credential values stored as a JSON object in Secrets Manager.
type SecretsSource struct {
	api SecretsAPI
}

func NewSecretsSource(api SecretsAPI) *SecretsSource {
	return &SecretsSource{api: api}
}

// NewDefaultSecretsSource builds a source from the default AWS configuration chain.
func NewDefaultSecretsSource(ctx context.Context) (*SecretsSource, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewSecretsSource(secretsmanager.NewFromConfig(cfg)), nil
}

// Values fetches and decodes the secret.
func (s *SecretsSource) Values(ctx context.Context, secretID string) (map[string]string, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", secretID)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object of strings: %w", secretID, err)
	}
	return values, nil
}

// ResolveCredentials loads credentials from the environment and, when
// OWLET_SECRET_ID is set and the user or password is missing, completes them
// from Secrets Manager. A nil source means the default AWS chain.
func ResolveCredentials(ctx context.Context, envFilePath string, source *SecretsSource) (Credentials, error) {
	creds, err := LoadCredentials(envFilePath)
	if err != nil {
		return Credentials{}, err
	}
	if creds.SecretID == "" || (creds.User != "" && creds.Password != "") {
		return creds, nil
	}

	if source == nil {
		source, err = NewDefaultSecretsSource(ctx)
		if err != nil {
			return creds, err
		}
	}

	values, err := source.Values(ctx, creds.SecretID)
	if err != nil {
		return creds, err
	}
	log.Info().Str("secret_id", creds.SecretID).Msg("Loaded Owlet credentials from Secrets Manager")
	return creds.Merge(values), nil
}
