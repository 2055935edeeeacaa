// internal/core/auth/service.go
package auth

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/DennisMbugua/collectflow/internal/api/responses"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/iterator"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type service struct {
	db        *firestore.Client
	jwtSecret []byte
}

func NewService(db *firestore.Client, jwtSecret []byte) Service {
	return &service{db: db, jwtSecret: jwtSecret}
}

// User is the shape of a user document in Firestore.
type User struct {
	Username     string   `firestore:"username"`
	PasswordHash string   `firestore:"passwordHash"`
	Roles        []string `firestore:"roles"`
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	query := s.db.Collection("users").Where("username", "==", username).Limit(1).Documents(ctx)
	defer query.Stop()

	doc, err := query.Next()
	if err == iterator.Done {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		responses.Logger().Error("firestore user lookup failed", zap.Error(err))
		return "", errors.New("error querying the user database")
	}

	var user User
	if err := doc.DataTo(&user); err != nil {
		return "", errors.New("error reading user data")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"roles":    user.Roles,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := claims.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.New("error generating access token")
	}
	return tokenString, nil
}
