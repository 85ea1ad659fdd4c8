package owlet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearOwletEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OWLET_USER", "OWLET_PASSWORD", "OWLET_REGION", "OWLET_APP_ID", "OWLET_APP_SECRET",
		"OWLET_API_URL", "OWLET_USER_URL", "OWLET_SECRET_ID",
	} {
		t.Setenv(key, "")
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCredentialsFromFile(t *testing.T) {
	clearOwletEnv(t)
	path := writeEnvFile(t, "OWLET_USER=file@example.com\nOWLET_PASSWORD=from-file\nOWLET_REGION=europe\n")
	t.Setenv("OWLET_PASSWORD", "from-env")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "file@example.com", creds.User)
	assert.Equal(t, "from-env", creds.Password)
	assert.Equal(t, "europe", creds.Region)
	assert.NoError(t, creds.Validate())
	assert.Contains(t, creds.Endpoints().APIURL, "-eu-")
}

func TestLoadCredentialsDefaults(t *testing.T) {
	clearOwletEnv(t)

	creds, err := LoadCredentials("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, creds.Region)
	assert.ErrorIs(t, creds.Validate(), ErrAuthentication)

	_, err = LoadCredentials(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestCredentialsValidate(t *testing.T) {
	base := Credentials{User: "u", Password: "p", Region: "mars"}
	assert.ErrorIs(t, base.Validate(), ErrAuthentication)

	base.APIURL = "http://localhost/apiv1/"
	base.UserURL = "http://localhost"
	require.NoError(t, base.Validate())
	assert.Equal(t, "http://localhost/apiv1", base.Endpoints().APIURL)
}

type fakeSecrets struct {
	secret string
	err    error
	asked  []string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.asked = append(f.asked, aws.ToString(in.SecretId))
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.secret)}, nil
}

func TestResolveCredentialsFromSecret(t *testing.T) {
	clearOwletEnv(t)
	t.Setenv("OWLET_SECRET_ID", "owlet/prod")
	t.Setenv("OWLET_USER", "env@example.com")

	api := &fakeSecrets{secret: `{"OWLET_USER":"secret@example.com","OWLET_PASSWORD":"pw","OWLET_REGION":"europe"}`}
	creds, err := ResolveCredentials(context.Background(), "", NewSecretsSource(api))
	require.NoError(t, err)
	assert.Equal(t, []string{"owlet/prod"}, api.asked)
	assert.Equal(t, "env@example.com", creds.User)
	assert.Equal(t, "pw", creds.Password)
	assert.Equal(t, "europe", creds.Region)
}

func TestResolveCredentialsSkipsSecretWhenComplete(t *testing.T) {
	clearOwletEnv(t)
	t.Setenv("OWLET_SECRET_ID", "owlet/prod")
	t.Setenv("OWLET_USER", "env@example.com")
	t.Setenv("OWLET_PASSWORD", "pw")

	api := &fakeSecrets{err: errors.New("should not be called")}
	creds, err := ResolveCredentials(context.Background(), "", NewSecretsSource(api))
	require.NoError(t, err)
	assert.Empty(t, api.asked)
	assert.Equal(t, "pw", creds.Password)
}

func TestResolveCredentialsSecretErrors(t *testing.T) {
	clearOwletEnv(t)
	t.Setenv("OWLET_SECRET_ID", "owlet/prod")

	_, err := ResolveCredentials(context.Background(), "", NewSecretsSource(&fakeSecrets{err: errors.New("denied")}))
	assert.ErrorContains(t, err, "denied")

	_, err = ResolveCredentials(context.Background(), "", NewSecretsSource(&fakeSecrets{secret: "not json"}))
	assert.Error(t, err)
}
