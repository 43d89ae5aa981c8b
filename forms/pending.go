// Package forms holds the transient state of the contact entry form.
package forms

import (
	"context"
	"sync"

	ds "github.com/oaiiae/event-contacts/datastores"
)

// Fields are the editable form fields.
type Fields struct {
	Name   string `json:"name"   example:"Ann"`
	Email  string `json:"email"  example:"ann@example.com"`
	Phone  string `json:"phone"  example:"+1 555 0100"`
	Notes  string `json:"notes"  example:"met at the keynote"`
	QRCode string `json:"qrCode" example:"MECARD:N:Ann;;"`
}

// Pending is a form being filled in. The zero value is an empty form.
type Pending struct {
	mu     sync.Mutex
	fields Fields
}

func (f *Pending) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Update overwrites every field.
func (f *Pending) Update(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

// Scanned overwrites the QR code field with payload, as is.
func (f *Pending) Scanned(payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.QRCode = payload
}

func (f *Pending) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = Fields{}
}

func (f *Pending) Input() ds.ContactInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields.input()
}

// Submit creates a contact from the form and clears it.
// The form is kept unchanged when the store rejects it.
func (f *Pending) Submit(ctx context.Context, store ds.ContactsStore) (*ds.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := store.Create(ctx, f.fields.input())
	if err != nil {
		return nil, err
	}
	f.fields = Fields{}
	return c, nil
}

func (fs *Fields) input() ds.ContactInput {
	return ds.ContactInput{
		Name:   fs.Name,
		Email:  fs.Email,
		Phone:  fs.Phone,
		Notes:  fs.Notes,
		QRCode: fs.QRCode,
	}
}
