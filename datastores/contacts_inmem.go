package datastores

import (
	"context"
	"slices"
	"sync"
)

// ContactsInmem implements [ContactsStore].
// Contacts are kept in insertion order.
type ContactsInmem struct {
	mu       sync.Mutex
	index    map[ContactID]int
	contacts []*Contact
	newID    func() ContactID
}

var _ ContactsStore = (*ContactsInmem)(nil)

func NewContactsInmem(cs ...*Contact) *ContactsInmem {
	s := &ContactsInmem{newID: newContactID}
	s.reset(cs)
	return s
}

func (s *ContactsInmem) Create(_ context.Context, in ContactInput) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(in)
}

func (s *ContactsInmem) List(_ context.Context) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts), nil
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return s.contacts[index], nil
}

func (s *ContactsInmem) Delete(_ context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delete(id)
	return nil
}

// Len returns the number of stored contacts.
func (s *ContactsInmem) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts)
}

// The helpers below expect s.mu to be held.

func (s *ContactsInmem) create(in ContactInput) (*Contact, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := in.contact(s.freshID())
	s.index[c.ID] = len(s.contacts)
	s.contacts = append(s.contacts, c)
	return c, nil
}

func (s *ContactsInmem) delete(id ContactID) bool {
	index, ok := s.index[id]
	if !ok {
		return false
	}
	delete(s.index, id)
	s.contacts = slices.Delete(s.contacts, index, index+1)
	for i := index; i < len(s.contacts); i++ {
		s.index[s.contacts[i].ID] = i
	}
	return true
}

// reset replaces the collection. Empty ids and ids already taken by an
// earlier contact get a new id; the number of such contacts is returned.
func (s *ContactsInmem) reset(cs []*Contact) int {
	var again []int
	s.index = make(map[ContactID]int, len(cs))
	for i, c := range cs {
		if _, taken := s.index[c.ID]; taken || c.ID == "" {
			again = append(again, i)
			continue
		}
		s.index[c.ID] = i
	}
	for _, i := range again {
		cs[i].ID = s.freshID()
		s.index[cs[i].ID] = i
	}
	s.contacts = cs
	return len(again)
}

func (s *ContactsInmem) freshID() ContactID {
	for {
		id := s.newID()
		if _, loaded := s.index[id]; !loaded {
			return id
		}
	}
}
