package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSignUp(t *testing.T) {
	users := newTestUserService(openTestDB(t))
	ctx := context.Background()

	user, err := users.SignUp(ctx, SignUpInput{Username: " jane ", Name: "Jane", Password: "pw", Gender: "female"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" || user.Username != "jane" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash must not leave the service")
	}
	if user.ProfilePicture != DefaultAvatarBaseURL+"/girl?username=jane" {
		t.Fatalf("unexpected profile picture %q", user.ProfilePicture)
	}

	male := signUp(t, users, "john doe")
	if !strings.HasSuffix(male.ProfilePicture, "/boy?username=john+doe") {
		t.Fatalf("unexpected profile picture %q", male.ProfilePicture)
	}
}

func TestSignUpRejectsDuplicateUsername(t *testing.T) {
	users := newTestUserService(openTestDB(t))
	signUp(t, users, "jane")

	_, err := users.SignUp(context.Background(), SignUpInput{Username: "jane", Name: "Other", Password: "pw", Gender: "female"})
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	users := newTestUserService(openTestDB(t))
	cases := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"missing username", SignUpInput{Name: "n", Password: "p", Gender: "male"}, ErrMissingFields},
		{"blank name", SignUpInput{Username: "u", Name: "  ", Password: "p", Gender: "male"}, ErrMissingFields},
		{"missing password", SignUpInput{Username: "u", Name: "n", Gender: "male"}, ErrMissingFields},
		{"missing gender", SignUpInput{Username: "u", Name: "n", Password: "p"}, ErrMissingFields},
		{"unknown gender", SignUpInput{Username: "u", Name: "n", Password: "p", Gender: "other"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := users.SignUp(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	users := newTestUserService(openTestDB(t))
	ctx := context.Background()
	created := signUp(t, users, "mark")

	user, err := users.Authenticate(ctx, "mark", "secret-mark")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != created.ID || user.PasswordHash != "" {
		t.Fatalf("unexpected authenticated user %+v", user)
	}

	if _, err := users.Authenticate(ctx, "mark", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "ghost", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "mark", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestGetByIDAndList(t *testing.T) {
	users := newTestUserService(openTestDB(t))
	ctx := context.Background()
	a := signUp(t, users, "a")
	signUp(t, users, "b")

	got, err := users.GetByID(ctx, a.ID)
	if err != nil || got.Username != "a" {
		t.Fatalf("get by id: %+v, %v", got, err)
	}
	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	list, err := users.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
	for _, u := range list {
		if u.PasswordHash != "" {
			t.Fatalf("listed user %s leaks password hash", u.Username)
		}
	}
}
