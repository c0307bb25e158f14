package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

type mockAuthenticator struct{ mock.Mock }

func (m *mockAuthenticator) Verify(ctx context.Context, token string) (domain.Identity, error) {
	args := m.Called(ctx, token)
	v, _ := args.Get(0).(domain.Identity)
	return v, args.Error(1)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	a := &mockAuthenticator{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(a)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	a.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestAuth_BadToken(t *testing.T) {
	a := &mockAuthenticator{}
	a.On("Verify", mock.Anything, "not-a-real-token").Return(domain.Identity{}, domain.ErrUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	Auth(a)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"invalid or expired token","error_code":401}`, rr.Body.String())
}

func TestAuth_StoreFailure(t *testing.T) {
	a := &mockAuthenticator{}
	a.On("Verify", mock.Anything, "tok").Return(domain.Identity{}, errors.New("dynamo down"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	Auth(a)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAuth_ValidToken_InjectsIdentity(t *testing.T) {
	a := &mockAuthenticator{}
	a.On("Verify", mock.Anything, "tok").Return(domain.Identity{UserID: "u1", DisplayName: "Ann"}, nil)

	var got domain.Identity
	var found bool
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	Auth(a)(capture).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.True(t, found)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Ann", got.DisplayName)
}
