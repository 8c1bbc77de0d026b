package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, username string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, username, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func hashedUser(t *testing.T, id uint, username, password string, role model.Role) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    "Jane",
		LastName:     "Doe",
	}
}

func TestAuthService_Register(t *testing.T) {
	input := RegisterInput{
		Username:  "jane",
		Email:     "jane@example.com",
		Password:  "password123",
		FirstName: "Jane",
		LastName:  "Doe",
	}

	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "successful registration",
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsername", mock.Anything, "jane").Return(false, nil)
				m.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name: "username already taken",
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsername", mock.Anything, "jane").Return(true, nil)
			},
			expectedError: apperrors.ErrUsernameTaken,
		},
		{
			name: "email already in use",
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsername", mock.Anything, "jane").Return(false, nil)
				m.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(true, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name: "username claimed between check and insert",
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsername", mock.Anything, "jane").Return(false, nil).Once()
				m.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil).Once()
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
				m.On("ExistsByUsername", mock.Anything, "jane").Return(true, nil).Once()
			},
			expectedError: apperrors.ErrUsernameTaken,
		},
		{
			name: "email claimed between check and insert",
			setupMock: func(m *MockUserRepository) {
				m.On("ExistsByUsername", mock.Anything, "jane").Return(false, nil).Twice()
				m.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(false, nil).Once()
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
				m.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(true, nil).Once()
			},
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"), new(MockTokenStore))
			user, err := service.Register(context.Background(), input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "jane", user.Username)
				assert.Equal(t, model.RoleCustomer, user.Role)
				assert.NotEqual(t, input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_ConcurrentDuplicates(t *testing.T) {
	gormDB := testutil.NewFileDB(t, 4)
	service := NewAuthService(repository.NewUserRepository(gormDB), auth.NewJWTService("test-secret"), new(MockTokenStore))

	for round := 0; round < 10; round++ {
		input := RegisterInput{
			Username:  fmt.Sprintf("racer%d", round),
			Email:     fmt.Sprintf("racer%d@example.com", round),
			Password:  "password123",
			FirstName: "Race",
			LastName:  "Condition",
		}

		errs := make([]error, 2)
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = service.Register(context.Background(), input)
			}(i)
		}
		close(start)
		wg.Wait()

		var succeeded int
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrUsernameTaken, "round %d", round)
		}
		assert.Equal(t, 1, succeeded, "round %d", round)
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*testing.T, *MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "jane",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByUsername", mock.Anything, "jane").Return(hashedUser(t, 5, "jane", "password123", model.RoleCustomer), nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.Anything, uint(5), "jane", auth.DefaultRefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "unknown username",
			username: "ghost",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "jane",
			password: "nope",
			setupMock: func(t *testing.T, mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByUsername", mock.Anything, "jane").Return(hashedUser(t, 5, "jane", "password123", model.RoleCustomer), nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(t, mockRepo, mockTokenStore)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService, mockTokenStore)

			result, err := service.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "Bearer", result.TokenType)
				assert.NotEmpty(t, result.RefreshToken)

				claims, err := jwtService.ValidateAccessToken(result.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, uint(5), claims.UserID)
				assert.Equal(t, model.RoleCustomer, claims.Role)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	identity := auth.Identity{UserID: 5, Username: "jane", Role: model.RoleCustomer}
	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(identity)
	require.NoError(t, err)

	t.Run("issues access token with current role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(5), "jane", nil)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(hashedUser(t, 5, "jane", "pw", model.RoleAdmin), nil)

		service := NewAuthService(mockRepo, jwtService, mockTokenStore)
		accessToken, err := service.RefreshToken(context.Background(), refreshToken)
		require.NoError(t, err)

		claims, err := jwtService.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, claims.Role)
	})

	t.Run("revoked token", func(t *testing.T) {
		mockTokenStore := new(MockTokenStore)
		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), "", assert.AnError)

		service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
		_, err := service.RefreshToken(context.Background(), refreshToken)
		assert.Equal(t, apperrors.ErrInvalidToken, err)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		accessToken, err := jwtService.GenerateAccessToken(identity)
		require.NoError(t, err)

		service := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore))
		_, err = service.RefreshToken(context.Background(), accessToken)
		assert.Equal(t, apperrors.ErrInvalidToken, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	identity := auth.Identity{UserID: 5, Username: "jane", Role: model.RoleCustomer}
	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(identity)
	require.NoError(t, err)
	accessToken, err := jwtService.GenerateAccessToken(identity)
	require.NoError(t, err)
	accessClaims, err := jwtService.ValidateAccessToken(accessToken)
	require.NoError(t, err)

	mockTokenStore := new(MockTokenStore)
	mockTokenStore.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)
	mockTokenStore.On("BlacklistAccessToken", mock.Anything, accessClaims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= auth.DefaultAccessTokenExpiry
	})).Return(nil)

	service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
	require.NoError(t, service.Logout(context.Background(), refreshToken, accessToken))
	mockTokenStore.AssertExpectations(t)

	assert.Equal(t, apperrors.ErrInvalidToken, service.Logout(context.Background(), "garbage", ""))
}
