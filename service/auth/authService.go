package authsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/r6mez/Digital-Library-API/model"
	authrepo "github.com/r6mez/Digital-Library-API/repository/auth"
	"github.com/r6mez/Digital-Library-API/util/database"
	"github.com/r6mez/Digital-Library-API/util/hash"
	jwtutil "github.com/r6mez/Digital-Library-API/util/jwt"
)

// errors used by controllers

type ErrCode string

const (
	ErrEmailTaken   ErrCode = "EMAIL_TAKEN"
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrInvalidCreds ErrCode = "INVALID_CREDENTIALS"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	r      authrepo.Repo
	secret string
}

func New(r authrepo.Repo, secret string) Service { return &service{r: r, secret: secret} }

func role(u *model.User) string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 6 {
		return nil, "", makeErr(ErrBadInput)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	if existing, err := s.r.ByEmail(ctx, email); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", makeErr(ErrEmailTaken)
	}

	u := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.r.Create(ctx, u); err != nil {
		// The unique index is the real guard; the pre-check above only
		// gives a friendlier fast path.
		if database.IsUniqueViolation(err) {
			return nil, "", makeErr(ErrEmailTaken)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, role(u), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", makeErr(ErrBadInput)
	}

	u, err := s.r.ByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds)
	}

	token, err := jwtutil.Issue(s.secret, u.ID, role(u), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
