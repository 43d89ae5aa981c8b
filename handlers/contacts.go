package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/event-contacts/datastores"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID ds.ContactID `json:"id" readOnly:"true" example:"AZK7pQ4sdlKq3H1mQ0x_dw"`

	Name   string `json:"name"             example:"Ann"`
	Email  string `json:"email,omitempty"  example:"ann@example.com"`
	Phone  string `json:"phone,omitempty"  example:"+1 555 0100"`
	Notes  string `json:"notes,omitempty"  example:"met at the keynote"`
	QRCode string `json:"qrCode,omitempty" example:"MECARD:N:Ann;;"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:     c.ID,
		Name:   c.Name,
		Email:  c.Email,
		Phone:  c.Phone,
		Notes:  c.Notes,
		QRCode: c.QRCode,
	}
}

// contactError maps store errors to HTTP errors, others are returned as is.
func contactError(err error) error {
	switch {
	case errors.Is(err, ds.ErrNameRequired):
		return huma.Error422UnprocessableEntity("name is required", err)
	case errors.Is(err, ds.ErrObjectNotFound):
		return huma.Error404NotFound("id not found", err)
	default:
		return err
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opID("list-contacts"),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, contactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opID("get-contact"),
		opErrors(http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsGetOutput struct {
	Body ContactModel
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to get"`
}) (*ContactsGetOutput, error) {
	contact, err := h.Store.Get(ctx, input.ID)
	if err != nil {
		return nil, contactError(err)
	}
	return &ContactsGetOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPost(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/",
		handlerWithErrorHandler(h.post, h.ErrorHandler),
		opID("create-contact"),
		opStatus(http.StatusCreated),
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

type ContactsPostInput struct {
	Body struct {
		Name   string `json:"name,omitempty"   example:"Ann" doc:"required, must not be blank"`
		Email  string `json:"email,omitempty"  example:"ann@example.com"`
		Phone  string `json:"phone,omitempty"  example:"+1 555 0100"`
		Notes  string `json:"notes,omitempty"  example:"met at the keynote"`
		QRCode string `json:"qrCode,omitempty" example:"MECARD:N:Ann;;"`
	}
}

type ContactsPostOutput struct {
	Body ContactModel
}

func (h *Contacts) post(ctx context.Context, input *ContactsPostInput) (*ContactsPostOutput, error) {
	contact, err := h.Store.Create(ctx, ds.ContactInput{
		Name:   input.Body.Name,
		Email:  input.Body.Email,
		Phone:  input.Body.Phone,
		Notes:  input.Body.Notes,
		QRCode: input.Body.QRCode,
	})
	if err != nil {
		return nil, contactError(err)
	}
	return &ContactsPostOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opID("delete-contact"),
		opErrors(http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to delete"`
}) (*struct{}, error) {
	return nil, h.Store.Delete(ctx, input.ID)
}
