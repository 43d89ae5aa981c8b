package datastores

import (
	"encoding/json"
	"fmt"
)

// EncodeContacts renders contacts as a JSON array. The empty collection is "[]".
func EncodeContacts(cs []*Contact) (string, error) {
	if cs == nil {
		cs = []*Contact{}
	}
	b, err := json.Marshal(cs)
	if err != nil {
		return "", fmt.Errorf("encode contacts: %w", err)
	}
	return string(b), nil
}

// DecodeContacts parses the output of [EncodeContacts].
// A JSON null decodes to no contacts. Ids are not checked, see [ContactsInmem].
func DecodeContacts(s string) ([]*Contact, error) {
	var cs []*Contact
	if err := json.Unmarshal([]byte(s), &cs); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	for i, c := range cs {
		if c == nil {
			return nil, fmt.Errorf("decode contacts: element %d is null", i)
		}
	}
	return cs, nil
}
