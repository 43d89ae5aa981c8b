// Package contacts implements the offline contact commands.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	ds "github.com/oaiiae/event-contacts/datastores"
)

var (
	nameColor   = color.New(color.Bold)        //nolint: gochecknoglobals
	idColor     = color.New(color.FgHiBlack)   //nolint: gochecknoglobals
	detailColor = color.New(color.FgCyan)      //nolint: gochecknoglobals
	qrColor     = color.New(color.FgHiMagenta) //nolint: gochecknoglobals
)

// List prints every contact with its non-empty details.
func List(ctx context.Context, w io.Writer, store ds.ContactsStore) error {
	contacts, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Fprintln(w, "no contacts")
		return nil
	}

	for _, c := range contacts {
		fmt.Fprintf(w, "%s %s\n", nameColor.Sprint(c.Name), idColor.Sprintf("(%s)", c.ID))
		for _, detail := range []string{c.Email, c.Phone, c.Notes} {
			if detail != "" {
				fmt.Fprintln(w, "  "+detailColor.Sprint(detail))
			}
		}
		if c.QRCode != "" {
			fmt.Fprintln(w, "  "+qrColor.Sprint("qr: "+c.QRCode))
		}
	}
	return nil
}

type entry struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Phone  string `yaml:"phone"`
	Notes  string `yaml:"notes"`
	QRCode string `yaml:"qrCode"`
}

// ImportError lists the entries that could not be imported.
type ImportError struct {
	Lines []int
	Errs  []error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%d entries rejected: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *ImportError) Unwrap() []error { return e.Errs }

// Import creates a contact for every entry of a YAML sequence read from r.
// Valid entries are imported even when others are rejected.
func Import(ctx context.Context, r io.Reader, store ds.ContactsStore) (int, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("parsing contacts: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return 0, errors.New("parsing contacts: expected a list of contacts")
	}

	var imported int
	var rejected ImportError
	for _, node := range doc.Content[0].Content {
		var e entry
		err := node.Decode(&e)
		if err == nil {
			_, err = store.Create(ctx, ds.ContactInput(e))
		}
		if err != nil {
			rejected.Lines = append(rejected.Lines, node.Line)
			rejected.Errs = append(rejected.Errs, fmt.Errorf("line %d: %w", node.Line, err))
			continue
		}
		imported++
	}

	if len(rejected.Errs) > 0 {
		return imported, &rejected
	}
	return imported, nil
}
