// Package scan feeds decoded QR code payloads into the pending contact form
// once the camera permission has been granted.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oaiiae/event-contacts/forms"
)

var (
	ErrPermissionDenied       = errors.New("scan: camera permission denied")
	ErrPermissionNotRequested = errors.New("scan: camera permission not requested")
)

// Event is a decoded code. Only Data is used.
type Event struct {
	Type string `json:"type,omitempty" example:"qr" doc:"symbology reported by the scanner, ignored"`
	Data string `json:"data"           example:"MECARD:N:Ann;;" doc:"decoded payload"`
}

// Capture tracks the permission and writes scanned payloads into a form.
type Capture struct {
	requester Requester
	form      *forms.Pending
	logger    *slog.Logger

	mu         sync.Mutex
	permission Permission
}

func NewCapture(requester Requester, form *forms.Pending, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		requester: requester,
		form:      form,
		logger:    logger.With("component", "scan"),
	}
}

func (c *Capture) Permission() Permission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permission
}

// Request asks for the permission once. A granted or denied answer is final.
func (c *Capture) Request(ctx context.Context) (Permission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.permission != PermissionUnknown {
		return c.permission, nil
	}

	p, err := c.requester.RequestPermission(ctx)
	if err != nil {
		return PermissionUnknown, fmt.Errorf("requesting camera permission: %w", err)
	}
	c.permission = p
	c.logger.InfoContext(ctx, "camera permission answered", "permission", p)
	return p, nil
}

// Handle stores ev.Data into the form, overwriting any previous code.
func (c *Capture) Handle(ev Event) error {
	switch c.Permission() {
	case PermissionGranted:
		c.form.Scanned(ev.Data)
		return nil
	case PermissionDenied:
		return ErrPermissionDenied
	default:
		return ErrPermissionNotRequested
	}
}
