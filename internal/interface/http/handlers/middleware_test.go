package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T, secret string) *TriggerAuth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return NewTriggerAuth(string(hash))
}

func TestTriggerAuth_Verify(t *testing.T) {
	auth := newAuth(t, "nightly-secret")

	assert.True(t, auth.Verify("nightly-secret"))
	assert.False(t, auth.Verify("wrong-secret"))
	assert.False(t, auth.Verify(""))
}

func TestTriggerAuth_VerifyEmptyHashAlwaysFails(t *testing.T) {
	auth := NewTriggerAuth("")
	assert.False(t, auth.Verify("anything"))
}

func TestTriggerAuth_Middleware(t *testing.T) {
	auth := newAuth(t, "nightly-secret")

	var reached bool
	protected := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing secret",
			setup:      func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "missing_credential",
		},
		{
			name: "wrong secret in header",
			setup: func(r *http.Request) {
				r.Header.Set(SecretHeader, "wrong")
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "invalid_credential",
		},
		{
			name: "valid secret in header",
			setup: func(r *http.Request) {
				r.Header.Set(SecretHeader, "nightly-secret")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "valid secret as bearer token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nightly-secret")
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodPost, "/api/v1/runs/zscore_run", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestChain_AppliesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mk("outer"), mk("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 64
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
