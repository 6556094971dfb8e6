package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"

	"aralis/internal/models"
	"aralis/internal/repositories"
	"aralis/pkg/errorbank"
)

// Claims is the identity carried by a validated JWT.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the token belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Password string `json:"password" validate:"required,strongpassword"`
}

// AuthService handles registration, login and JWT validation.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates a customer account and returns it with a session token.
func (s *AuthService) Register(in RegisterInput) (*models.User, string, error) {
	if !IsStrongPassword(in.Password) {
		return nil, "", errorbank.BadRequest("password must be at least 8 characters and include upper case, lower case, a digit and a symbol",
			errorbank.WithCause(ErrWeakPassword))
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", errorbank.Internal("failed to register user", errorbank.WithCause(err))
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", storeError(err, "", fmt.Sprintf("email '%s' already registered", user.Email))
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login checks the credentials and returns a session token. Unknown email and
// wrong password fail the same way.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", nil, errorbank.Internal("failed to log in", errorbank.WithCause(err))
		}
		return "", nil, errorbank.Unauthorized("invalid credentials", errorbank.WithCause(ErrInvalidCredentials))
	}
	if !passwordMatches(user.Password, password) {
		return "", nil, errorbank.Unauthorized("invalid credentials", errorbank.WithCause(ErrInvalidCredentials))
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs an HS256 JWT for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errorbank.Internal("failed to generate token", errorbank.WithCause(err))
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", zap.Error(err))
		return nil, errorbank.Unauthorized("invalid or expired token", errorbank.WithCause(err))
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errorbank.Unauthorized("invalid or expired token")
	}
	claims := &Claims{}
	claims.UserID, _ = mapClaims["user_id"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	claims.Role, _ = mapClaims["role"].(string)
	if claims.UserID == "" {
		return nil, errorbank.Unauthorized("invalid or expired token")
	}
	return claims, nil
}
