package service

import (
	"context"
	"testing"
	"time"

	"codedojo/internal/common"
	"codedojo/internal/common/security"
	"codedojo/internal/domain/model"
	"codedojo/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testSecret = []byte("service-test-secret-0123456789ab")

func newTestCodec(t *testing.T) *security.TokenCodec {
	t.Helper()
	codec, err := security.NewTokenCodec("HS256", testSecret, time.Hour)
	require.NoError(t, err)
	return codec
}

func TestRegisterAndLogin(t *testing.T) {
	users := testutil.NewUserRepo()
	codec := newTestCodec(t)
	svc := NewAuthService(users, codec, zaptest.NewLogger(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret", user.HashedPassword)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Login(ctx, "bob", "s3cret")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	tok, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	claims, err := codec.Verify(tok.AccessToken)
	require.NoError(t, err)
	id, err := security.GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(testutil.NewUserRepo(), newTestCodec(t), zaptest.NewLogger(t))

	for _, req := range []RegisterRequest{{Username: "", Password: "x"}, {Username: "   ", Password: "x"}, {Username: "bob"}} {
		_, err := svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, common.ErrValidation, "%+v", req)
	}
	_, err := svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGrantAdmin(t *testing.T) {
	users := testutil.NewUserRepo()
	svc := NewAuthService(users, newTestCodec(t), zaptest.NewLogger(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "root", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.GrantAdmin(ctx, "root"))

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, svc.GrantAdmin(ctx, "nobody"), common.ErrNotFound)
}

func TestCredentialGate(t *testing.T) {
	users := testutil.NewUserRepo()
	codec := newTestCodec(t)
	gate := NewCredentialGate(codec, users, zaptest.NewLogger(t))
	ctx := context.Background()

	alice := &model.User{ID: "3c7d9e4a-1b2f-4a6c-8d0e-5f7a9b1c3d5e", Username: "alice", Role: model.RoleUser}
	require.NoError(t, users.Create(ctx, alice))

	valid, err := codec.IssueForUser(alice.ID)
	require.NoError(t, err)
	orphan, err := codec.IssueForUser("00000000-0000-4000-8000-000000000000")
	require.NoError(t, err)
	noClaim, err := codec.Issue(jwt.MapClaims{"sub": alice.ID})
	require.NoError(t, err)

	got := gate.Resolve(ctx, valid)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	for name, tok := range map[string]string{
		"empty":    "",
		"garbage":  "abc.def.ghi",
		"orphan":   orphan,
		"no claim": noClaim,
	} {
		assert.Nil(t, gate.Resolve(ctx, tok), name)
		_, err := gate.Require(ctx, tok)
		assert.ErrorIs(t, err, common.ErrUnauthorized, name)
	}

	user, err := gate.Require(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Deleting the user invalidates tokens already issued for it.
	users.Delete(alice.ID)
	assert.Nil(t, gate.Resolve(ctx, valid))
}
