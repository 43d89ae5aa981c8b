package datastores

import (
	"context"
	"errors"
	"strings"
)

type (
	// ContactID is opaque: new ids are UUIDv7 in raw URL base64, older persisted ids are kept verbatim.
	ContactID string
	Contact   struct {
		ID     ContactID `json:"id"`
		Name   string    `json:"name"`
		Email  string    `json:"email"`
		Phone  string    `json:"phone"`
		Notes  string    `json:"notes"`
		QRCode string    `json:"qrCode"`
	}
	ContactInput struct {
		Name   string
		Email  string
		Phone  string
		Notes  string
		QRCode string
	}
)

type ContactsStore interface {
	Create(context.Context, ContactInput) (*Contact, error)
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Delete(context.Context, ContactID) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrNameRequired   = errors.New("name is required")
)

// ValidationError reports an input rejected before any mutation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return "store: invalid " + e.Field + ": " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func (in *ContactInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrNameRequired}
	}
	return nil
}

func (in *ContactInput) contact(id ContactID) *Contact {
	return &Contact{
		ID:     id,
		Name:   in.Name,
		Email:  in.Email,
		Phone:  in.Phone,
		Notes:  in.Notes,
		QRCode: in.QRCode,
	}
}
