package models

import "strings"

// ID is a record identifier assigned by the trade service. The service is free
// to send it as a JSON number or a JSON string.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// Validate reports whether id can address a single trade resource.
func (id ID) Validate() error {
	switch {
	case id.IsZero():
		return ErrMissingID
	case id == "." || id == ".." || strings.Contains(string(id), "/"):
		return ErrInvalidID
	}
	return nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*id = ID(s)
	return nil
}
