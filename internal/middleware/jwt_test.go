package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("user-1", "fixer", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	userID, role, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != "user-1" || role != "fixer" {
		t.Errorf("got %q/%q, want user-1/fixer", userID, role)
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken("user-1", "customer", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, _, err := ParseToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, _, err := ParseToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func echoContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTMiddleware_SetsIdentity(t *testing.T) {
	token, _ := IssueToken("user-9", "customer", time.Hour)
	c, _ := echoContext(t, "Bearer "+token)

	called := false
	next := func(c echo.Context) error {
		called = true
		if got := c.Get("user_id"); got != "user-9" {
			t.Errorf("user_id: got %v", got)
		}
		if got := c.Get("role"); got != "customer" {
			t.Errorf("role: got %v", got)
		}
		return nil
	}
	if err := JWTMiddleware(next)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !called {
		t.Fatal("next handler not reached")
	}
}

func TestJWTMiddleware_RejectsMissingOrBadToken(t *testing.T) {
	for _, header := range []string{"", "Token abc", "Bearer bogus"} {
		c, rec := echoContext(t, header)
		next := func(c echo.Context) error {
			t.Fatalf("next reached with header %q", header)
			return nil
		}
		if err := JWTMiddleware(next)(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: got %d, want 401", header, rec.Code)
		}
	}
}

func TestRequireRoles(t *testing.T) {
	okNext := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("matching role passes", func(t *testing.T) {
		c, rec := echoContext(t, "")
		c.Set("role", "fixer")
		if err := RequireRoles("fixer")(okNext)(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("got %d, want 200", rec.Code)
		}
	})

	t.Run("wrong role forbidden", func(t *testing.T) {
		c, rec := echoContext(t, "")
		c.Set("role", "customer")
		if err := RequireRoles("fixer")(okNext)(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusForbidden {
			t.Errorf("got %d, want 403", rec.Code)
		}
	})

	t.Run("empty role forbidden until onboarding", func(t *testing.T) {
		c, rec := echoContext(t, "")
		c.Set("role", "")
		if err := RequireRoles("customer", "fixer")(okNext)(c); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		if rec.Code != http.StatusForbidden {
			t.Errorf("got %d, want 403", rec.Code)
		}
	})
}
