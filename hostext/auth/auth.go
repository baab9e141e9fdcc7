// Package auth exposes JWT issuance/validation and bcrypt password
// hashing as Rill host functions: auth::generate_token,
// auth::validate_token, auth::hash_password, auth::check_password.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// Service issues and validates HS256 JWTs for scripts that need to mint
// or check tokens without a host round trip.
type Service struct {
	secretKey string
	tokenTTL  time.Duration
}

func NewService(secretKey string, tokenTTL time.Duration) *Service {
	return &Service{secretKey: secretKey, tokenTTL: tokenTTL}
}

// Register installs auth::generate_token, auth::validate_token,
// auth::hash_password, and auth::check_password on rc.
func (s *Service) Register(rc *runtime.Context) {
	rc.RegisterHostFunction("auth::generate_token", &value.Callable{
		Kind: value.HostCallable, Name: "auth::generate_token", Native: s.generateToken,
	})
	rc.RegisterHostFunction("auth::validate_token", &value.Callable{
		Kind: value.HostCallable, Name: "auth::validate_token", Native: s.validateToken,
	})
	rc.RegisterHostFunction("auth::hash_password", &value.Callable{
		Kind: value.HostCallable, Name: "auth::hash_password", Native: hashPassword,
	})
	rc.RegisterHostFunction("auth::check_password", &value.Callable{
		Kind: value.HostCallable, Name: "auth::check_password", Native: checkPassword,
	})
}

func (s *Service) generateToken(a *value.Args, _ interface{}) (value.Value, error) {
	userID, ok1 := a.Get(0)
	email, ok2 := a.Get(1)
	if !ok1 || !ok2 || userID.Kind() != value.KindString || email.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("auth::generate_token", a.Len(), 2)
	}
	var roles []string
	if rv, ok := a.Get(2); ok && rv.Kind() == value.KindTuple {
		for _, r := range rv.AsTuple() {
			roles = append(roles, r.AsString())
		}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.AsString(),
		"email":   email.AsString(),
		"roles":   roles,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return value.Null, rillerr.TypeError("auth::generate_token: " + err.Error())
	}
	return value.String(signed), nil
}

func (s *Service) validateToken(a *value.Args, _ interface{}) (value.Value, error) {
	tokenStr, ok := a.Get(0)
	if !ok || tokenStr.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("auth::validate_token", a.Len(), 1)
	}

	token, err := jwt.Parse(tokenStr.AsString(), func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid {
		return value.Null, rillerr.TypeError("auth::validate_token: invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return value.Null, rillerr.TypeError("auth::validate_token: invalid token claims")
	}

	d := value.NewDict()
	if userID, ok := claims["user_id"].(string); ok {
		d.Set("user_id", value.String(userID))
	}
	if email, ok := claims["email"].(string); ok {
		d.Set("email", value.String(email))
	}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		roles := make([]value.Value, 0, len(rawRoles))
		for _, r := range rawRoles {
			if rs, ok := r.(string); ok {
				roles = append(roles, value.String(rs))
			}
		}
		d.Set("roles", value.Tuple(roles))
	}
	return value.DictValue(d), nil
}

// hashPassword rejects passwords over bcrypt's 72-byte limit, mirroring
// the teacher's guard.
func hashPassword(a *value.Args, _ interface{}) (value.Value, error) {
	pw, ok := a.Get(0)
	if !ok || pw.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("auth::hash_password", a.Len(), 1)
	}
	if len(pw.AsString()) > 72 {
		return value.Null, rillerr.TypeError("password exceeds maximum length of 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pw.AsString()), bcrypt.DefaultCost)
	if err != nil {
		return value.Null, rillerr.TypeError("auth::hash_password: " + err.Error())
	}
	return value.String(string(hashed)), nil
}

func checkPassword(a *value.Args, _ interface{}) (value.Value, error) {
	pw, ok1 := a.Get(0)
	hash, ok2 := a.Get(1)
	if !ok1 || !ok2 || pw.Kind() != value.KindString || hash.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("auth::check_password", a.Len(), 2)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash.AsString()), []byte(pw.AsString()))
	return value.Bool(err == nil), nil
}
