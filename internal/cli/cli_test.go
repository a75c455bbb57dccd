package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/errors"
)

type memoryKeys struct {
	keys    []apikey.KeyInfo
	revoked []string
	closed  bool
}

func (m *memoryKeys) Create(_ context.Context, name string, rateLimit int, expiresAt *time.Time) (string, *apikey.KeyInfo, error) {
	info := apikey.KeyInfo{ID: "1", Name: name, RateLimit: rateLimit, IsActive: true, ExpiresAt: expiresAt}
	m.keys = append(m.keys, info)
	return "sk_test", &info, nil
}

func (m *memoryKeys) Revoke(_ context.Context, id string) error {
	if id != "1" {
		return apikey.ErrNotFound
	}
	m.revoked = append(m.revoked, id)
	return nil
}

func (m *memoryKeys) List(context.Context) ([]apikey.KeyInfo, error) {
	return m.keys, nil
}

func run(t *testing.T, store *memoryKeys, args ...string) (string, error) {
	t.Helper()
	var opener KeyStoreOpener
	if store != nil {
		opener = func(context.Context, *config.Config) (KeyStore, func(), error) {
			return store, func() { store.closed = true }, nil
		}
	}
	cmd := NewRootCmd(opener)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSummarizeCommand(t *testing.T) {
	path := writeTemp(t, "pets.txt", "Cats are great. Dogs are great too. Cats and dogs are pets.")

	out, err := run(t, nil, "summarize", path, "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, "Cats and dogs are pets.\n", out)

	out, err = run(t, nil, "summarize", path, "-n", "1", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "[2] Cats and dogs are pets.")
	assert.Contains(t, out, "1 of 3 sentences")
}

func TestSummarizeCommandErrors(t *testing.T) {
	_, err := run(t, nil, "summarize", writeTemp(t, "deck.pptx", "x"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)

	_, err = run(t, nil, "summarize", writeTemp(t, "one.txt", "One."), "-n", "0")
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)

	_, err = run(t, nil, "summarize", writeTemp(t, "empty.txt", ""))
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
}

func TestEvaluateCommand(t *testing.T) {
	ref := writeTemp(t, "ref.txt", "the cat sat on the mat")
	sum := writeTemp(t, "sum.txt", "the cat sat on the mat")

	out, err := run(t, nil, "evaluate", "--reference", ref, "--summary", sum)
	require.NoError(t, err)
	assert.Contains(t, out, "rouge-1     1.0000    1.0000    1.0000")
	assert.Contains(t, out, "rouge-l")

	_, err = run(t, nil, "evaluate", "--reference", ref)
	assert.Error(t, err)
}

func TestKeysCommands(t *testing.T) {
	store := &memoryKeys{}

	out, err := run(t, store, "keys", "create", "--name", "dashboard", "--rate-limit", "120")
	require.NoError(t, err)
	assert.Contains(t, out, "sk_test")
	assert.True(t, store.closed)
	require.Len(t, store.keys, 1)
	assert.Equal(t, 120, store.keys[0].RateLimit)

	out, err = run(t, store, "keys", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "dashboard")
	assert.Contains(t, out, "never")

	_, err = run(t, store, "keys", "revoke", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, store.revoked)

	_, err = run(t, store, "keys", "revoke", "9")
	assert.ErrorIs(t, err, apikey.ErrNotFound)
}

func TestKeysCreateUsesConfiguredDefaultLimit(t *testing.T) {
	store := &memoryKeys{}
	_, err := run(t, store, "keys", "create", "--name", "ci")
	require.NoError(t, err)
	assert.Equal(t, 60, store.keys[0].RateLimit)
}
