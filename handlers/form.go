package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/event-contacts/datastores"
	"github.com/oaiiae/event-contacts/forms"
)

// Form exposes the pending contact form.
type Form struct {
	Form         *forms.Pending
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type FormModel struct {
	Name   string `json:"name,omitempty"   example:"Ann"`
	Email  string `json:"email,omitempty"  example:"ann@example.com"`
	Phone  string `json:"phone,omitempty"  example:"+1 555 0100"`
	Notes  string `json:"notes,omitempty"  example:"met at the keynote"`
	QRCode string `json:"qrCode,omitempty" example:"MECARD:N:Ann;;" doc:"last scanned payload"`
}

type FormOutput struct {
	Body FormModel
}

func formOutput(f forms.Fields) *FormOutput {
	return &FormOutput{Body: FormModel(f)}
}

func (h *Form) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/", func(_ context.Context, _ *struct{}) (*FormOutput, error) {
		return formOutput(h.Form.Fields()), nil
	}, opID("get-form"))
}

func (h *Form) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/", func(_ context.Context, input *struct{ Body FormModel }) (*FormOutput, error) {
		h.Form.Update(forms.Fields(input.Body))
		return formOutput(h.Form.Fields()), nil
	}, opID("update-form"))
}

func (h *Form) RegisterReset(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/", func(_ context.Context, _ *struct{}) (*struct{}, error) {
		h.Form.Reset()
		return nil, nil
	}, opID("reset-form"))
}

func (h *Form) RegisterSubmit(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/submit",
		handlerWithErrorHandler(h.submit, h.ErrorHandler),
		opID("submit-form"),
		opStatus(http.StatusCreated),
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Form) submit(ctx context.Context, _ *struct{}) (*ContactsPostOutput, error) {
	contact, err := h.Form.Submit(ctx, h.Store)
	if err != nil {
		return nil, contactError(err)
	}
	return &ContactsPostOutput{Body: contactModel(contact)}, nil
}
