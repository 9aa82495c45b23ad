package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nextlog-sync-server/internal/domain"
	"nextlog-sync-server/pkg/hash"
	"nextlog-sync-server/pkg/jwt"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	tests := []struct {
		name    string
		req     *domain.RegisterRequest
		wantErr bool
	}{
		{
			name: "valid registration",
			req: &domain.RegisterRequest{
				Username: "w1xyz",
				Email:    "op@example.com",
				Password: "SecurePass123!",
			},
			wantErr: false,
		},
		{
			name: "duplicate email",
			req: &domain.RegisterRequest{
				Username: "other",
				Email:    "op@example.com",
				Password: "SecurePass123!",
			},
			wantErr: true,
		},
		{
			name: "duplicate username",
			req: &domain.RegisterRequest{
				Username: "w1xyz",
				Email:    "other@example.com",
				Password: "SecurePass123!",
			},
			wantErr: true,
		},
		{
			name: "password too short",
			req: &domain.RegisterRequest{
				Username: "short",
				Email:    "short@example.com",
				Password: "short",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Register(context.Background(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	password := "SecurePass123!"
	hashed, _ := hash.Hash(password)
	repo.users["u1"] = &domain.User{
		ID:       "u1",
		Username: "w1xyz",
		Email:    "op@example.com",
		Password: hashed,
	}

	t.Run("valid login", func(t *testing.T) {
		resp, err := service.Login(context.Background(), &domain.LoginRequest{
			Email:    "op@example.com",
			Password: password,
		})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Error("Login() returned empty tokens")
		}
		if resp.User.Password != "" {
			t.Error("Login() leaked the password hash")
		}

		claims, err := jwt.ValidateToken(resp.AccessToken, "test-secret")
		if err != nil {
			t.Fatalf("access token does not validate: %v", err)
		}
		if claims.UserID != "u1" {
			t.Errorf("token userID = %q, want u1", claims.UserID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(context.Background(), &domain.LoginRequest{
			Email:    "op@example.com",
			Password: "WrongPass123!",
		})
		if err == nil {
			t.Error("Login() expected error for wrong password")
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login(context.Background(), &domain.LoginRequest{
			Email:    "nobody@example.com",
			Password: password,
		})
		if err == nil {
			t.Error("Login() expected error for unknown email")
		}
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	repo := newMockUserRepository()
	service := NewAuthService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	refresh, err := jwt.GenerateRefreshToken("u1", time.Hour, "test-secret")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	resp, err := service.RefreshToken(context.Background(), &domain.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("RefreshToken() returned empty access token")
	}

	_, err = service.RefreshToken(context.Background(), &domain.RefreshTokenRequest{RefreshToken: "garbage"})
	if err == nil {
		t.Error("RefreshToken() expected error for invalid token")
	}
}
