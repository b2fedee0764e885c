package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intentlab/intent-backend/internal/logger"
	"github.com/intentlab/intent-backend/internal/repos"
	"github.com/intentlab/intent-backend/internal/requestdata"
	"github.com/intentlab/intent-backend/internal/types"
	"github.com/intentlab/intent-backend/internal/utils"
)

const tokenLifetime = 7 * 24 * time.Hour

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (string, *types.User, error)
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	jwtSecret []byte
	userRepo  repos.UserRepo
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, jwtSecret string, userRepo repos.UserRepo) AuthService {
	return &authService{
		db:        db,
		log:       baseLog.With("service", "AuthService"),
		jwtSecret: []byte(jwtSecret),
		userRepo:  userRepo,
	}
}

func (s *authService) Register(ctx context.Context, email, password, name string) (string, *types.User, error) {
	email = utils.NormalizeEmail(email)
	exists, err := s.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return "", nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return "", nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", nil, err
	}
	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: hash,
		Name:     name,
	}
	if _, err := s.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return token, user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = utils.NormalizeEmail(email)
	users, err := s.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return "", nil, ErrInvalidCredentials
	}
	user := users[0]
	if !utils.CheckPassword(user.Password, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) issueToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// SetContextFromToken validates a bearer token, loads the user behind it and
// attaches the request identity to the context.
func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ctx, ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return ctx, ErrInvalidCredentials
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, ErrInvalidCredentials
	}

	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return ctx, ErrInvalidCredentials
	}

	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      users[0].ID,
		Email:       users[0].Email,
	}), nil
}
