package sso

import (
	"encoding/json"
	"net/url"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ActorKind discriminates the two possible principals.
type ActorKind string

const (
	ActorKindUser    ActorKind = "user"
	ActorKindPatient ActorKind = "patient"
)

// UserActor is the user shape serialized into the logged-user cookie.
type UserActor struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Roles    []UserRole `json:"roles,omitempty"`
	Verified bool       `json:"is_verified"`
	Language string     `json:"language,omitempty"`
}

// PatientActor identifies a patient session established through a shared code.
type PatientActor struct {
	PatientID string `json:"patient_id"`
	Code      string `json:"code,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Actor is the authenticated principal for a request: exactly one of User or
// Patient is set.
type Actor struct {
	User    *UserActor    `json:"user,omitempty"`
	Patient *PatientActor `json:"patient,omitempty"`
}

// NewUserActor builds an Actor from a user model.
func NewUserActor(u *User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{User: &UserActor{
		ID:       u.ID,
		Email:    u.Email,
		Roles:    u.Roles,
		Verified: u.EmailValidated,
		Language: u.Language,
	}}
}

// NewPatientActor builds an Actor for a patient session.
func NewPatientActor(patientID, code, token string) *Actor {
	return &Actor{Patient: &PatientActor{
		PatientID: patientID,
		Code:      code,
		Token:     token,
	}}
}

// Kind returns the actor discriminator, empty for an invalid actor.
func (a *Actor) Kind() ActorKind {
	switch {
	case a == nil:
		return ""
	case a.User != nil && a.Patient == nil:
		return ActorKindUser
	case a.Patient != nil && a.User == nil:
		return ActorKindPatient
	default:
		return ""
	}
}

func (a *Actor) IsUser() bool    { return a.Kind() == ActorKindUser }
func (a *Actor) IsPatient() bool { return a.Kind() == ActorKindPatient }

// Validate enforces the exactly-one invariant.
func (a *Actor) Validate() error {
	if a.Kind() == "" {
		return errors.New("actor must have exactly one of user or patient", errors.CategoryValidation)
	}
	return nil
}

// PreferredLanguage returns the user's language preference, empty for
// patients and invalid actors.
func (a *Actor) PreferredLanguage() string {
	if a.IsUser() {
		return a.User.Language
	}
	return ""
}

// EncodeActor serializes an actor for cookie transport: JSON, URL escaped so
// the value survives the cookie jar. The cookie is intentionally readable by
// scripts; see session package.
func EncodeActor(a *Actor) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to encode actor")
	}
	return url.QueryEscape(string(raw)), nil
}

// DecodeActor reverses EncodeActor.
func DecodeActor(value string) (*Actor, error) {
	if value == "" {
		return nil, errors.New("empty actor value", errors.CategoryBadInput)
	}
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "malformed actor value")
	}
	actor := &Actor{}
	if err := json.Unmarshal([]byte(raw), actor); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to decode actor")
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return actor, nil
}
