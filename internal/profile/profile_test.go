package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p, err := Register(ctx, repo, "alice", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.NotEqual(t, "secret123", p.PasswordHash)

	_, err = Register(ctx, repo, "alice", "another123")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = Register(ctx, repo, "bob", "short")
	assert.Error(t, err)

	got, err := Authenticate(ctx, repo, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = Authenticate(ctx, repo, "alice", "wrongpass")
	assert.Error(t, err)
	_, err = Authenticate(ctx, repo, "nobody", "secret123")
	assert.Error(t, err)
}

func TestMemoryRepositoryUpdateDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	p, err := Register(ctx, repo, "alice", "secret123")
	require.NoError(t, err)

	p.WeightKg = 60.5
	p.HydrationTarget = 10
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.5, got.WeightKg)
	assert.Equal(t, 10, got.HydrationTarget)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.Usernames())
}

func TestBMI(t *testing.T) {
	p := &Profile{HeightCm: 170, WeightKg: 65}
	assert.Equal(t, 22.5, p.BMI())

	assert.Zero(t, (&Profile{WeightKg: 65}).BMI())
	assert.Zero(t, (&Profile{HeightCm: 170}).BMI())
}

func TestJwtRoundTrip(t *testing.T) {
	const secret = "test-secret"
	token, err := IssueToken(secret, "user-1")
	require.NoError(t, err)

	e := echo.New()
	handler := JwtAuthMiddleware(secret)(func(c echo.Context) error {
		userID, err := UserIDFromContext(c)
		require.NoError(t, err)
		return c.String(http.StatusOK, userID)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestJwtRejectsBadTokens(t *testing.T) {
	e := echo.New()
	handler := JwtAuthMiddleware("test-secret")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	other, err := IssueToken("other-secret", "user-1")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	_, err := IssueToken("", "user-1")
	assert.Error(t, err)
}
