package identity

import "testing"

func TestTokenManagerRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, expiresAt, err := tm.Generate("id-42", "someone@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expected expiry to be set")
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.SubjectID != "id-42" {
		t.Fatalf("unexpected subject: %s", claims.SubjectID)
	}
	if claims.Email != "someone@example.com" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
}

func TestTokenManagerRejectsForeignSecret(t *testing.T) {
	minted, _, err := NewTokenManager("secret-one", 15).Generate("id-42", "someone@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewTokenManager("secret-two", 15).Parse(minted); err == nil {
		t.Fatal("token minted under another secret must not parse")
	}
}
