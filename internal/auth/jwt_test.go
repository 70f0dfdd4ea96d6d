package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/inventur/internal/model"
)

var testUser = &model.User{ID: 1, Username: "Admin", Role: model.RoleAdmin}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := []byte("test-secret-key")

	token, issued, err := GenerateToken(secret, testUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" || issued.ID == "" {
		t.Fatal("expected token and token ID")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "Admin" || claims.Role != model.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Errorf("token ID = %q, want %q", claims.ID, issued.ID)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	secret := []byte("k")
	_, a, _ := GenerateToken(secret, testUser)
	_, b, _ := GenerateToken(secret, testUser)
	if a.ID == b.ID {
		t.Error("two logins share a token ID")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := GenerateToken([]byte("secret1"), testUser)
	if _, err := ValidateToken([]byte("secret2"), token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken([]byte("secret"), "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	secret := []byte("secret")
	claims := &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(secret, token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestValidateTokenRejectsNoneAlg(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken([]byte("secret"), token); err == nil {
		t.Error("unsigned token accepted")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := []byte("test")
	token, _, _ := GenerateToken(secret, testUser)
	claims, _ := ValidateToken(secret, token)

	diff := claims.ExpiresAt.Time.Sub(time.Now().Add(SessionTTL))
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("expiry off by %v", diff)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("admin")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "admin") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "Admin") {
		t.Error("wrong password accepted")
	}
	if CheckPassword("", "") {
		t.Error("empty hash matched")
	}
}
