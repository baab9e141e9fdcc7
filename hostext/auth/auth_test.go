package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/value"
)

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	genArgs := value.NewArgs()
	genArgs.Positional = []value.Value{
		value.String("user-1"),
		value.String("user@example.com"),
		value.Tuple([]value.Value{value.String("admin")}),
	}
	tok, err := s.generateToken(genArgs, nil)
	require.NoError(t, err)
	require.Equal(t, value.KindString, tok.Kind())

	valArgs := value.NewArgs()
	valArgs.Positional = []value.Value{tok}
	claims, err := s.validateToken(valArgs, nil)
	require.NoError(t, err)
	require.Equal(t, value.KindDict, claims.Kind())

	uid, ok := claims.AsDict().Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "user-1", uid.AsString())

	roles, ok := claims.AsDict().Get("roles")
	require.True(t, ok)
	require.Len(t, roles.AsTuple(), 1)
	assert.Equal(t, "admin", roles.AsTuple()[0].AsString())
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	s := NewService("test-secret", time.Hour)
	other := NewService("different-secret", time.Hour)

	genArgs := value.NewArgs()
	genArgs.Positional = []value.Value{value.String("u"), value.String("e@x.com")}
	tok, err := s.generateToken(genArgs, nil)
	require.NoError(t, err)

	valArgs := value.NewArgs()
	valArgs.Positional = []value.Value{tok}
	_, err = other.validateToken(valArgs, nil)
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hashArgs := value.NewArgs()
	hashArgs.Positional = []value.Value{value.String("correct horse battery staple")}
	hash, err := hashPassword(hashArgs, nil)
	require.NoError(t, err)

	checkArgs := value.NewArgs()
	checkArgs.Positional = []value.Value{value.String("correct horse battery staple"), hash}
	ok, err := checkPassword(checkArgs, nil)
	require.NoError(t, err)
	assert.True(t, ok.AsBool())

	wrongArgs := value.NewArgs()
	wrongArgs.Positional = []value.Value{value.String("wrong"), hash}
	ok, err = checkPassword(wrongArgs, nil)
	require.NoError(t, err)
	assert.False(t, ok.AsBool())
}

func TestHashPasswordRejectsOverlong(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	args := value.NewArgs()
	args.Positional = []value.Value{value.String(string(long))}
	_, err := hashPassword(args, nil)
	assert.Error(t, err)
}
