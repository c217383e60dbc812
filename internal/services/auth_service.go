package services

import (
	"errors"
	"strings"

	"furnibles/internal/domain"
	"furnibles/internal/repos"
	"furnibles/internal/validate"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Register(sid, email, name, password, role string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, &domain.ValidationError{Field: "email", Msg: "malformed"}
	}
	name, ok = validate.Name(name)
	if !ok {
		return nil, &domain.ValidationError{Field: "name", Msg: "must be 1-40 characters"}
	}
	if !validate.Password(password) {
		return nil, &domain.ValidationError{Field: "password", Msg: "must be 8-20 chars with upper, lower, digit and symbol"}
	}
	if role != "USER" && role != "SELLER" {
		role = "USER"
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Email: email, Name: name, Hash: string(h), Role: role}
	if err := s.Users.Create(u); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, &domain.ValidationError{Field: "email", Msg: "already registered"}
		}
		return nil, err
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
