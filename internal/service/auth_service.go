package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo           repository.UserRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
	now                func() time.Time
	logger             zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpHours time.Duration, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
		now:                time.Now,
		logger:             logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *AuthService) Register(ctx context.Context, in domain.RegisterUserInput) (*domain.User, error) {
	existingUser, err := s.userRepo.FindByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("AuthService.Register (lookup): %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("AuthService.Register (hash): %w", err)
	}

	user := &domain.User{
		Username:   in.Username,
		Password:   string(hashedPassword),
		FullName:   in.FullName,
		Address:    in.Address,
		PostalCode: in.PostalCode,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("AuthService.Register: %w", err)
	}
	s.logger.Info().Int("user_id", createdUser.ID).Str("username", createdUser.Username).Msg("user registered")
	createdUser.Password = ""
	return createdUser, nil
}

// Authenticate distinguishes an unknown handle from a wrong password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("AuthService.Authenticate: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	user.Password = ""
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.Authenticate(ctx, dto.Username, dto.Password)
	if err != nil {
		s.logger.Info().Str("username", dto.Username).Err(err).Msg("login rejected")
		return nil, err
	}

	now := s.now()
	customClaims := jwt.MapClaims{
		"sub":      strconv.Itoa(user.ID),
		"exp":      now.Add(s.jwtExpirationHours).Unix(),
		"iat":      now.Unix(),
		"role":     user.Actor().Role(),
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, customClaims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("AuthService.Login (sign): %w", err)
	}

	redirect := "/user/dashboard"
	if user.IsAdmin {
		redirect = "/admin/dashboard"
	}
	return &domain.AuthResponseDTO{
		Token:    tokenString,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Actor().Role(),
		Redirect: redirect,
	}, nil
}

// ValidateToken turns a bearer token back into the caller's identity.
func (s *AuthService) ValidateToken(tokenString string) (domain.Actor, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return domain.Actor{}, fmt.Errorf("%w: malformed", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, fmt.Errorf("%w: expired", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return domain.Actor{}, fmt.Errorf("%w: not valid yet", ErrTokenInvalid)
		}
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return domain.Actor{}, ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.Atoi(sub)
	if err != nil || userID <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	username, _ := claims["username"].(string)
	isAdmin, _ := claims["is_admin"].(bool)
	return domain.Actor{UserID: userID, Username: username, IsAdmin: isAdmin}, nil
}

// EnsureBootstrapAdmin creates the admin account once; later calls are no-ops.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		existing.Password = ""
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("AuthService.EnsureBootstrapAdmin (lookup): %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("AuthService.EnsureBootstrapAdmin (hash): %w", err)
	}
	admin, err := s.userRepo.Create(ctx, &domain.User{
		Username: username,
		Password: string(hashedPassword),
		FullName: "admin",
		Address:  "address",
		IsAdmin:  true,
	})
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// Another replica won the race.
		existing, err := s.userRepo.FindByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("AuthService.EnsureBootstrapAdmin (reload): %w", err)
		}
		existing.Password = ""
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("AuthService.EnsureBootstrapAdmin: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("bootstrap admin created")
	admin.Password = ""
	return admin, nil
}

func (s *AuthService) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("AuthService.ListUsers: %w", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}
