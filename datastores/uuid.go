package datastores

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// newContactID returns a version 7 UUID in [base64.RawURLEncoding]:
// time ordered with random bits, so ids minted within the same
// millisecond still differ.
func newContactID() ContactID {
	id := uuid.Must(uuid.NewV7())
	return ContactID(base64.RawURLEncoding.EncodeToString(id[:]))
}
