package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlegen/internal/domain"
	"articlegen/internal/middleware"
)

type fakeAdmin struct {
	snap       domain.QuotaSnapshot
	article    domain.Article
	err        error
	storedKey  string
	deleted    bool
	quotaUser  string
	reconciled string
}

func (f *fakeAdmin) Quota(ctx context.Context, userID string) (domain.QuotaSnapshot, error) {
	f.quotaUser = userID
	return f.snap, f.err
}

func (f *fakeAdmin) Reconcile(ctx context.Context, articleID string) (domain.Article, error) {
	f.reconciled = articleID
	return f.article, f.err
}

func (f *fakeAdmin) SetProviderKey(ctx context.Context, key string) error {
	f.storedKey = key
	return f.err
}

func (f *fakeAdmin) DeleteProviderKey(ctx context.Context) error {
	f.deleted = true
	return f.err
}

func run(t *testing.T, admin Admin, args ...string) (string, error) {
	t.Helper()
	closed := false
	cmd := NewRootCommand(Options{OpenAdmin: func(ctx context.Context) (Admin, func(), error) {
		return admin, func() { closed = true }, nil
	}})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil && admin != nil && needsAdmin(args) {
		assert.True(t, closed, "admin should be closed after %v", args)
	}
	return out.String(), err
}

func needsAdmin(args []string) bool {
	switch args[0] {
	case "quota", "reconcile", "provider-key":
		return true
	}
	return false
}

func TestQuotaCommandPrintsSnapshot(t *testing.T) {
	admin := &fakeAdmin{snap: domain.QuotaSnapshot{Limit: 6, Used: 2, Remaining: 4, Window: 24 * time.Hour}}

	out, err := run(t, admin, "quota", "--user", "user-9")

	require.NoError(t, err)
	assert.Equal(t, "user-9", admin.quotaUser)
	assert.JSONEq(t, `{"limit":6,"used":2,"remaining":4,"nextRefillAt":null,"windowMs":86400000}`, out)
}

func TestQuotaCommandRequiresUser(t *testing.T) {
	_, err := run(t, &fakeAdmin{}, "quota")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestReconcileCommand(t *testing.T) {
	admin := &fakeAdmin{article: domain.Article{ID: "a-1", Status: domain.ArticleStatusCompleted}}

	out, err := run(t, admin, "reconcile", "--id", "a-1")

	require.NoError(t, err)
	assert.Equal(t, "a-1", admin.reconciled)
	assert.Contains(t, out, `"status": "completed"`)
	assert.Contains(t, out, `"percent": 100`)
}

func TestReconcileCommandPropagatesErrors(t *testing.T) {
	_, err := run(t, &fakeAdmin{err: domain.ErrNotFound}, "reconcile", "--id", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProviderKeyCommand(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "")

	admin := &fakeAdmin{}
	out, err := run(t, admin, "provider-key", "--key", " sk-123 ")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", admin.storedKey)
	assert.Contains(t, out, "stored")

	admin = &fakeAdmin{}
	_, err = run(t, admin, "provider-key", "--delete")
	require.NoError(t, err)
	assert.True(t, admin.deleted)

	_, err = run(t, &fakeAdmin{}, "provider-key")
	require.Error(t, err)
}

func TestProviderKeyCommandWrapsStoreErrors(t *testing.T) {
	_, err := run(t, &fakeAdmin{err: errors.New("relation does not exist")}, "provider-key", "--key", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist provider key")
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	out, err := run(t, nil, "token", "--user", "user-1", "--secret", "s3cret", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := middleware.VerifyJWT("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, nil, "token", "--user", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret")
}

func TestMigrateCommandRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, nil, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
