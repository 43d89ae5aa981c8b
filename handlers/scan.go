package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oaiiae/event-contacts/scan"
)

// Scan exposes the camera permission and accepts scanned codes.
type Scan struct {
	Capture      *scan.Capture
	ErrorHandler func(context.Context, error)
}

type PermissionOutput struct {
	Body struct {
		Permission string `json:"permission" enum:"unknown,granted,denied" example:"granted"`
	}
}

func permissionOutput(p scan.Permission) *PermissionOutput {
	out := &PermissionOutput{}
	out.Body.Permission = p.String()
	return out
}

func (h *Scan) RegisterGetPermission(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/permission", func(_ context.Context, _ *struct{}) (*PermissionOutput, error) {
		return permissionOutput(h.Capture.Permission()), nil
	}, opID("get-scan-permission"))
}

func (h *Scan) RegisterRequestPermission(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/permission",
		handlerWithErrorHandler(h.request, h.ErrorHandler),
		opID("request-scan-permission"),
		opErrors(http.StatusInternalServerError),
	)
}

func (h *Scan) request(ctx context.Context, _ *struct{}) (*PermissionOutput, error) {
	p, err := h.Capture.Request(ctx)
	if err != nil {
		return nil, err
	}
	return permissionOutput(p), nil
}

func (h *Scan) RegisterScan(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/",
		handlerWithErrorHandler(h.scan, h.ErrorHandler),
		opID("scan-code"),
		opErrors(http.StatusForbidden),
	)
}

func (h *Scan) scan(_ context.Context, input *struct{ Body scan.Event }) (*struct{}, error) {
	err := h.Capture.Handle(input.Body)
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, scan.ErrPermissionDenied):
		return nil, huma.Error403Forbidden("camera permission denied", err)
	case errors.Is(err, scan.ErrPermissionNotRequested):
		return nil, huma.Error403Forbidden("camera permission not requested yet", err)
	default:
		return nil, err
	}
}
