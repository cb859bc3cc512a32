package service

import (
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// forbiddenUsernames are reserved by routing ("users/me/").
var forbiddenUsernames = map[string]bool{"me": true}

// ErrInvalidCredentials is returned for any login failure; the caller
// never learns whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
	}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

func validateUsername(username string) *ValidationError {
	if username == "" {
		return newValidationError("username", "username is required")
	}
	if forbiddenUsernames[username] {
		return newValidationError("username", "username %q is not allowed", username)
	}
	if len(username) > models.MaxNameLength {
		return newValidationError("username", "username must be at most %d characters", models.MaxNameLength)
	}
	if !usernamePattern.MatchString(username) {
		return newValidationError("username", "username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

// Register creates a new user account.
func (s *AuthService) Register(in RegisterInput) (*models.User, error) {
	if verr := validateUsername(in.Username); verr != nil {
		return nil, verr
	}
	if in.Email == "" || len(in.Email) > models.MaxEmailLength {
		return nil, newValidationError("email", "a valid email of at most %d characters is required", models.MaxEmailLength)
	}
	if in.FirstName == "" || len(in.FirstName) > models.MaxNameLength {
		return nil, newValidationError("first_name", "first name is required, at most %d characters", models.MaxNameLength)
	}
	if in.LastName == "" || len(in.LastName) > models.MaxNameLength {
		return nil, newValidationError("last_name", "last name is required, at most %d characters", models.MaxNameLength)
	}
	if len(in.Password) < 8 {
		return nil, newValidationError("password", "password must be at least 8 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newValidationError("email", "a user with this email already exists")
	}
	if err := s.db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newValidationError("username", "a user with this username already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hashed),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(&user)
}

// SetPassword changes the password after verifying the current one.
func (s *AuthService) SetPassword(userID uint, current, next string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return newValidationError("current_password", "current password is incorrect")
	}
	if len(next) < 8 {
		return newValidationError("new_password", "password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password_hash", string(hashed)).Error
}

// GenerateToken issues a signed JWT for the user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  float64(user.ID),
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, errors.New("invalid token claims")
	}
	username, _ := claims["username"].(string)

	// Reject tokens for users that no longer exist.
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", uint(userID)).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("unknown user")
	}

	return &middleware.TokenClaims{
		UserID:   uint(userID),
		Username: username,
	}, nil
}
