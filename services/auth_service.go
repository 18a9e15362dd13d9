package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"whatstrumps/engine"
	"whatstrumps/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required,max=255"`
	LastName  string `json:"last_name" binding:"required,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=255"`
	LastName  string `json:"last_name" binding:"required,max=255"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Claims are carried in every issued token. The registered ID is the
// session token ID.
type Claims struct {
	UserID      uint `json:"user_id"`
	IsSuperuser bool `json:"is_superuser"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID, IsSuperuser: c.IsSuperuser}
}

// normalizeEmail lowercases the domain part of an address.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// Register creates an account and the player that represents it.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	var existing int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Player").Create(&user).Error; err != nil {
			return err
		}
		player := models.Player{
			FirstName:       user.FirstName,
			LastName:        user.LastName,
			UserID:          &user.ID,
			CreatedByUserID: user.ID,
		}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		user.Player = &player
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Registered concurrently after the count above.
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return s.issueToken(&user)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(&user)
}

func (s *AuthService) issueToken(user *models.User) (*AuthResponse, error) {
	now := s.now()
	session := models.SessionToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	claims := Claims{
		UserID:      user.ID,
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &AuthResponse{Token: signed, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// ValidateToken checks the signature and expiry of a token and that its
// session has not been ended.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	var session models.SessionToken
	err = s.db.Where("id = ? AND user_id = ? AND expires_at > ?", claims.ID, claims.UserID, s.now()).
		First(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("session lookup failed", zap.Error(err))
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout ends the session a token was issued for.
func (s *AuthService) Logout(tokenID string) error {
	return s.db.Where("id = ?", tokenID).Delete(&models.SessionToken{}).Error
}

func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Player").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", engine.ErrNotFound, userID)
	}
	return &user, err
}

// UpdateProfile changes a user's name and keeps their player in step.
func (s *AuthService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{"first_name": first, "last_name": last})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: user %d", engine.ErrNotFound, userID)
		}
		return tx.Model(&models.Player{}).Where("user_id = ?", userID).
			Updates(map[string]interface{}{"first_name": first, "last_name": last}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

// PurgeExpiredSessions deletes session tokens that expired before now.
func (s *AuthService) PurgeExpiredSessions() (int64, error) {
	result := s.db.Where("expires_at <= ?", s.now()).Delete(&models.SessionToken{})
	return result.RowsAffected, result.Error
}
