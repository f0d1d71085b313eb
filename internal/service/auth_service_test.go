package service

import (
	"context"
	"testing"
	"time"

	"tienda-api/internal/domain"
	"tienda-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockUserRoleRepository struct {
	grants map[uuid.UUID][]domain.Role
}

func newMockUserRoleRepository() *mockUserRoleRepository {
	return &mockUserRoleRepository{
		grants: make(map[uuid.UUID][]domain.Role),
	}
}

func (m *mockUserRoleRepository) HasRole(ctx context.Context, userID uuid.UUID, role domain.Role) (bool, error) {
	for _, granted := range m.grants[userID] {
		if granted == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRoleRepository) Grant(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	for _, granted := range m.grants[userID] {
		if granted == role {
			return nil
		}
	}
	m.grants[userID] = append(m.grants[userID], role)
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func newTestAuthService() (AuthService, *mockUserRepository, *mockUserRoleRepository, *mockRefreshTokenRepository) {
	userRepo := newMockUserRepository()
	userRoleRepo := newMockUserRoleRepository()
	refreshTokenRepo := newMockRefreshTokenRepository()
	return NewAuthService(userRepo, userRoleRepo, refreshTokenRepo, "test-secret-key"),
		userRepo, userRoleRepo, refreshTokenRepo
}

func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string, firstName string, lastName string) bool {
			service, userRepo, _, _ := newTestAuthService()
			ctx := context.Background()

			user, err := service.Register(ctx, email, password, firstName, lastName)
			if err != nil {
				// If registration fails, skip this test case
				return true
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: Password stored as plaintext for email %s", email)
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: Password hash is not a valid bcrypt hash or doesn't match: %v", err)
				return false
			}

			storedUser, err := userRepo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: Could not find stored user: %v", err)
				return false
			}

			return storedUser.PasswordHash == user.PasswordHash
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_AccessTokensCarryIdentityOnly(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("access tokens contain the user ID and no role claim", prop.ForAll(
		func(email string, password string, firstName string, lastName string) bool {
			service, _, _, _ := newTestAuthService()
			ctx := context.Background()

			user, err := service.Register(ctx, email, password, firstName, lastName)
			if err != nil {
				return true // Skip if registration fails
			}

			accessToken, _, _, err := service.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte("test-secret-key"), nil
			})
			if err != nil || !parsed.Valid {
				t.Logf("FAIL: Token parse failed: %v", err)
				return false
			}

			if claims.UserID != user.ID {
				t.Logf("FAIL: User ID claim mismatch. Expected %s, got %s", user.ID, claims.UserID)
				return false
			}

			// Authorization is never baked into the token
			raw := jwt.MapClaims{}
			if _, err := jwt.ParseWithClaims(accessToken, raw, func(token *jwt.Token) (interface{}, error) {
				return []byte("test-secret-key"), nil
			}); err != nil {
				return false
			}
			if _, hasRole := raw["role"]; hasRole {
				t.Logf("FAIL: Token carries a role claim")
				return false
			}

			return claims.ExpiresAt != nil && claims.IssuedAt != nil
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_TokenRefreshRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid refresh token returns new valid access token", prop.ForAll(
		func(email string, password string, firstName string, lastName string) bool {
			service, _, _, _ := newTestAuthService()
			ctx := context.Background()

			user, err := service.Register(ctx, email, password, firstName, lastName)
			if err != nil {
				return true // Skip if registration fails
			}

			_, refreshToken, _, err := service.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			newAccessToken, err := service.RefreshToken(ctx, refreshToken)
			if err != nil {
				t.Logf("FAIL: Token refresh failed: %v", err)
				return false
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(newAccessToken, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte("test-secret-key"), nil
			})
			if err != nil || !parsed.Valid {
				t.Logf("FAIL: New access token validation failed: %v", err)
				return false
			}

			return claims.UserID == user.ID
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	service, _, _, refreshTokenRepo := newTestAuthService()
	ctx := context.Background()

	if _, err := service.Register(ctx, "ana@tienda.com", "password123", "Ana", "López"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, refreshToken, _, err := service.Login(ctx, "ana@tienda.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := service.Logout(ctx, refreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := service.RefreshToken(ctx, refreshToken); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken after logout, got %v", err)
	}

	if _, err := refreshTokenRepo.FindByToken(ctx, refreshToken); err != repository.ErrRefreshTokenRevoked {
		t.Errorf("expected token to be revoked in repository, got %v", err)
	}
}

func TestRegister_GrantsDefaultUserRoleOnly(t *testing.T) {
	service, _, userRoleRepo, _ := newTestAuthService()
	ctx := context.Background()

	user, err := service.Register(ctx, "ana@tienda.com", "password123", "Ana", "López")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	hasUser, _ := userRoleRepo.HasRole(ctx, user.ID, domain.RoleUser)
	if !hasUser {
		t.Error("expected registration to grant the user role")
	}

	isAdmin, err := service.AuthorizeAdmin(ctx, user.ID)
	if err != nil {
		t.Fatalf("AuthorizeAdmin failed: %v", err)
	}
	if isAdmin {
		t.Error("expected freshly registered user not to be an admin")
	}
}

func TestAuthorizeAdmin_TrueOnlyWithAdminRoleRow(t *testing.T) {
	service, _, userRoleRepo, _ := newTestAuthService()
	ctx := context.Background()

	user, err := service.Register(ctx, "admin@tienda.com", "password123", "Ana", "López")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := userRoleRepo.Grant(ctx, user.ID, domain.RoleAdmin); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	isAdmin, err := service.AuthorizeAdmin(ctx, user.ID)
	if err != nil {
		t.Fatalf("AuthorizeAdmin failed: %v", err)
	}
	if !isAdmin {
		t.Error("expected admin role row to authorize")
	}
}

func TestRevokeSessions_RevokesEveryTokenForTheUser(t *testing.T) {
	service, _, _, refreshTokenRepo := newTestAuthService()
	ctx := context.Background()

	user, err := service.Register(ctx, "ana@tienda.com", "password123", "Ana", "López")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Two concurrent sessions
	_, first, _, err := service.Login(ctx, "ana@tienda.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, second, _, err := service.Login(ctx, "ana@tienda.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := service.RevokeSessions(ctx, user.ID); err != nil {
		t.Fatalf("RevokeSessions failed: %v", err)
	}

	for _, token := range []string{first, second} {
		if _, err := refreshTokenRepo.FindByToken(ctx, token); err != repository.ErrRefreshTokenRevoked {
			t.Errorf("expected token revoked, got %v", err)
		}
	}
}
