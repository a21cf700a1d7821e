package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("rejects an unsupported driver", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "mysql"}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("postgres requires a dsn", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "postgres"}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dsn is required")
	})

	t.Run("postgres keeps the supplied dsn", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "postgres", DSN: "postgresql://u:p@localhost/recalld"}
		require.NoError(t, p.Validate())
		assert.Equal(t, "postgresql://u:p@localhost/recalld", p.DSN)
	})

	t.Run("sqlite derives a dsn under the data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}
		require.NoError(t, p.Validate())
		assert.Equal(t, filepath.Join(dir, "recalld_dev.db"), p.DSN)
	})

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "staging", Driver: "sqlite", Data: dir}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("zero embedding dim falls back to the default", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}
		require.NoError(t, p.Validate())
		assert.Equal(t, DefaultEmbeddingDim, p.EmbeddingDim)
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults to openai", func(t *testing.T) {
		t.Setenv("RECALLD_EMBEDDING_PROVIDER", "")
		t.Setenv("RECALLD_EMBEDDING_BASE_URL", "")
		t.Setenv("RECALLD_EMBEDDING_MODEL", "")

		p := &Profile{}
		p.FromEnv()
		assert.Equal(t, "openai", p.EmbeddingProvider)
		assert.Equal(t, "https://api.openai.com/v1", p.EmbeddingBaseURL)
		assert.Equal(t, "text-embedding-3-small", p.EmbeddingModel)
		assert.Equal(t, DefaultEmbeddingDim, p.EmbeddingDim)
	})

	t.Run("applies provider defaults for ollama", func(t *testing.T) {
		t.Setenv("RECALLD_EMBEDDING_PROVIDER", "ollama")
		t.Setenv("RECALLD_EMBEDDING_BASE_URL", "")
		t.Setenv("RECALLD_EMBEDDING_MODEL", "")

		p := &Profile{}
		p.FromEnv()
		assert.Equal(t, "http://localhost:11434/v1", p.EmbeddingBaseURL)
		assert.Equal(t, "nomic-embed-text", p.EmbeddingModel)
	})

	t.Run("an explicit base url wins over provider defaults", func(t *testing.T) {
		t.Setenv("RECALLD_EMBEDDING_PROVIDER", "openai")
		t.Setenv("RECALLD_EMBEDDING_BASE_URL", "http://localhost:8080/v1")
		t.Setenv("RECALLD_EMBEDDING_MODEL", "")

		p := &Profile{}
		p.FromEnv()
		assert.Equal(t, "http://localhost:8080/v1", p.EmbeddingBaseURL)
		assert.Equal(t, "text-embedding-3-small", p.EmbeddingModel)
	})

	t.Run("an unknown provider falls back to openai", func(t *testing.T) {
		t.Setenv("RECALLD_EMBEDDING_PROVIDER", "acme")
		t.Setenv("RECALLD_EMBEDDING_BASE_URL", "")
		t.Setenv("RECALLD_EMBEDDING_MODEL", "")

		p := &Profile{}
		p.FromEnv()
		assert.Equal(t, "openai", p.EmbeddingProvider)
	})
}

func TestIsEmbeddingEnabled(t *testing.T) {
	assert.False(t, (&Profile{}).IsEmbeddingEnabled())
	assert.True(t, (&Profile{EmbeddingAPIKey: "sk-test"}).IsEmbeddingEnabled())
}
