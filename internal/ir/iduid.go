package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IdUid pairs a scope-local model id with a globally unique UID.
//
// The zero value ("0:0") marks an unallocated counter. Ids assigned to model
// elements always have ID > 0 and UID > 0.
type IdUid struct {
	ID  int32
	UID int64
}

// ParseIdUid parses the "id:uid" text form.
func ParseIdUid(s string) (IdUid, error) {
	idPart, uidPart, ok := strings.Cut(s, ":")
	if !ok {
		return IdUid{}, fmt.Errorf("id/uid %q: missing ':' separator", s)
	}

	id, err := strconv.ParseInt(idPart, 10, 32)
	if err != nil {
		return IdUid{}, fmt.Errorf("id/uid %q: bad model id: %w", s, err)
	}
	if id < 0 {
		return IdUid{}, fmt.Errorf("id/uid %q: model id must not be negative", s)
	}

	uid, err := strconv.ParseInt(uidPart, 10, 64)
	if err != nil {
		return IdUid{}, fmt.Errorf("id/uid %q: bad uid: %w", s, err)
	}
	if uid < 0 || (uid == 0 && id != 0) {
		return IdUid{}, fmt.Errorf("id/uid %q: uid must be positive", s)
	}

	return IdUid{ID: int32(id), UID: uid}, nil
}

// MustParseIdUid is like ParseIdUid but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseIdUid(s string) IdUid {
	v, err := ParseIdUid(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the "id:uid" form.
func (v IdUid) String() string {
	return strconv.FormatInt(int64(v.ID), 10) + ":" + strconv.FormatInt(v.UID, 10)
}

// IsZero reports whether nothing has been allocated.
func (v IdUid) IsZero() bool {
	return v.ID == 0 && v.UID == 0
}

// MarshalText implements encoding.TextMarshaler.
func (v IdUid) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *IdUid) UnmarshalText(text []byte) error {
	parsed, err := ParseIdUid(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v IdUid) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON implements json.Unmarshaler.
// An empty string is accepted as the zero value for hand-edited files.
func (v *IdUid) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id/uid must be a string of the form \"id:uid\": %w", err)
	}
	if s == "" {
		*v = IdUid{}
		return nil
	}
	return v.UnmarshalText([]byte(s))
}
