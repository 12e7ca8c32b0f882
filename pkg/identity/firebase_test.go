package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenVerifier struct {
	token *auth.Token
	err   error
}

func (f *fakeTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseVerifier(t *testing.T) {
	t.Run("role claim", func(t *testing.T) {
		v := &FirebaseVerifier{client: &fakeTokenVerifier{token: &auth.Token{
			UID:    "uid-1",
			Claims: map[string]interface{}{"role": "hospital_admin"},
		}}}

		claims, err := v.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, "uid-1", claims.UserID)
		assert.Equal(t, "hospital_admin", claims.Role)
	})

	t.Run("no role claim", func(t *testing.T) {
		v := &FirebaseVerifier{client: &fakeTokenVerifier{token: &auth.Token{UID: "uid-2"}}}

		claims, err := v.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.Empty(t, claims.Role)
	})

	t.Run("rejected token", func(t *testing.T) {
		v := &FirebaseVerifier{client: &fakeTokenVerifier{err: errors.New("bad signature")}}

		_, err := v.Verify(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("deadline", func(t *testing.T) {
		v := &FirebaseVerifier{client: &fakeTokenVerifier{err: context.DeadlineExceeded}}

		_, err := v.Verify(context.Background(), "token")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("empty credential", func(t *testing.T) {
		v := &FirebaseVerifier{client: &fakeTokenVerifier{}}

		_, err := v.Verify(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}
