package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/record"
	"github.com/yeisme/filevault/pkg/internal/storage/kv"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/rule"
)

const sessionKeyPrefix = "sess."

var errInvalidCredentials = apperr.Unauthorized("invalid username or password")

// Session is the server-side state behind a token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthDeps are the collaborators of an AuthService.
type AuthDeps struct {
	Users  *record.Users
	KV     kv.KVStore
	Auth   configs.AuthConfig
	Logger *zerolog.Logger
}

// AuthService manages accounts and sessions. A token is only valid while
// its session exists in the KV store.
type AuthService struct {
	AuthDeps
}

func NewAuthService(deps AuthDeps) *AuthService {
	if deps.Logger == nil {
		deps.Logger = log.Logger()
	}

	if deps.Auth.BcryptCost == 0 {
		deps.Auth.BcryptCost = bcrypt.DefaultCost
	}

	if deps.Auth.SessionTTL <= 0 {
		deps.Auth.SessionTTL = configs.DefaultSessionTTL
	}

	return &AuthService{AuthDeps: deps}
}

// Signup creates an account.
func (s *AuthService) Signup(ctx context.Context, req types.SignupRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)

	if err := rule.ValidateStruct(req); err != nil {
		return nil, apperr.Validation(rule.First(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Auth.BcryptCost)
	if err != nil {
		return nil, apperr.Validation("password cannot be hashed")
	}

	u := &model.User{
		Username:     req.Username,
		FullName:     req.FullName,
		Gender:       req.Gender,
		PasswordHash: string(hash),
	}

	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.Logger.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("user signed up")

	return u, nil
}

// Login verifies the credentials and opens a session. The returned token
// carries the user id as subject and the session id.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	u, err := s.Users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, "", errInvalidCredentials
	}

	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", errInvalidCredentials
	}

	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Username:  u.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.Auth.SessionTTL),
	}

	data, err := sonic.Marshal(sess)
	if err != nil {
		return nil, "", err
	}

	if err := s.KV.Set(ctx, sessionKeyPrefix+sess.ID, data, s.Auth.SessionTTL); err != nil {
		return nil, "", apperr.Persistence("store session", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}).SignedString([]byte(s.Auth.Secret))
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// Authenticate resolves token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token")
	}

	data, err := s.KV.Get(ctx, sessionKeyPrefix+claims.SID)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, apperr.Unauthorized("session expired")
	}

	if err != nil {
		s.Logger.Error().Err(err).Msg("session lookup failed")
		return nil, apperr.Unauthorized("session unavailable")
	}

	var sess Session
	if err := sonic.Unmarshal(data, &sess); err != nil {
		return nil, apperr.Unauthorized("invalid session")
	}

	if sess.UserID != claims.Subject || time.Now().After(sess.ExpiresAt) {
		return nil, apperr.Unauthorized("invalid session")
	}

	return &sess, nil
}

// Logout revokes the session of token. Unknown or malformed tokens are
// ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	var claims sessionClaims

	_, err := jwt.ParseWithClaims(token, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.SID == "" {
		return nil
	}

	if err := s.KV.Delete(ctx, sessionKeyPrefix+claims.SID); err != nil {
		return apperr.Persistence("delete session", err)
	}

	return nil
}

// Me returns the account of sess.
func (s *AuthService) Me(ctx context.Context, sess *Session) (*model.User, error) {
	u, err := s.Users.FindByID(ctx, sess.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized("account no longer exists")
	}

	return u, err
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	var claims sessionClaims

	_, err := jwt.ParseWithClaims(token, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if claims.SID == "" || claims.Subject == "" {
		return nil, errors.New("token without session")
	}

	return &claims, nil
}

func (s *AuthService) keyFunc(*jwt.Token) (any, error) {
	return []byte(s.Auth.Secret), nil
}
