package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"shoppos/internal/auth/domain"
	"shoppos/internal/auth/repository"
	"shoppos/internal/platform/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
)

const tokenTTL = 12 * time.Hour // one shift and then some

type AuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	ValidateToken(tokenString string) (int64, error)
}

type authServiceImpl struct {
	repo   repository.UserRepository
	secret []byte
}

func NewAuthService(repo repository.UserRepository, secret string) AuthService {
	return &authServiceImpl{repo: repo, secret: []byte(secret)}
}

func (s *authServiceImpl) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Register: failed to hash password", err)
		return nil, fmt.Errorf("could not process registration: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserConflict) {
			return nil, ErrUserAlreadyExists
		}
		logger.Error("Register: failed to create user in repo", err)
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))

	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		logger.Error("Login: failed to get user", err)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		logger.Error("Login: failed to sign token", err)
		return nil, fmt.Errorf("could not generate token: %w", err)
	}

	user.PasswordHash = ""
	return &domain.LoginResponse{User: *user, Token: tokenString}, nil
}

// ValidateToken checks the signature and expiry and returns the user id.
func (s *authServiceImpl) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	return int64(userID), nil
}

// SeedOperator provisions the single register operator account from config
// when the backing store starts empty (the spreadsheet deployments).
func SeedOperator(ctx context.Context, svc AuthService, username, password string) error {
	if password == "" {
		logger.Warn("SeedOperator: POS_ADMIN_PASSWORD not set, skipping operator seed")
		return nil
	}
	_, err := svc.Register(ctx, domain.RegisterRequest{Username: username, Password: password})
	if err != nil && !errors.Is(err, ErrUserAlreadyExists) {
		return err
	}
	return nil
}
