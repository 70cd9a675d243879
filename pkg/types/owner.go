package types

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrOwnerRequired is returned when neither a user nor a session is known.
var ErrOwnerRequired = errors.New("cart owner requires a user or a session")

// Owner identifies who a cart line or box reservation belongs to: an
// authenticated user or an anonymous session, never both.
type Owner struct {
	UserID     *uuid.UUID
	SessionKey string
}

// UserOwner returns an owner for an authenticated user.
func UserOwner(id uuid.UUID) Owner {
	return Owner{UserID: &id}
}

// SessionOwner returns an owner for an anonymous session.
func SessionOwner(key string) Owner {
	return Owner{SessionKey: strings.TrimSpace(key)}
}

// IsUser reports whether the owner is an authenticated user.
func (o Owner) IsUser() bool {
	return o.UserID != nil && *o.UserID != uuid.Nil
}

// Validate enforces the user-xor-session rule.
func (o Owner) Validate() error {
	hasUser := o.IsUser()
	hasSession := o.SessionKey != ""
	switch {
	case hasUser && hasSession:
		return errors.New("cart owner cannot be both a user and a session")
	case !hasUser && !hasSession:
		return ErrOwnerRequired
	}
	return nil
}

// SessionPtr returns the session key as a nullable column value.
func (o Owner) SessionPtr() *string {
	if o.IsUser() || o.SessionKey == "" {
		return nil
	}
	key := o.SessionKey
	return &key
}

// LogKey is a short identifier for log fields.
func (o Owner) LogKey() string {
	if o.IsUser() {
		return "user:" + o.UserID.String()
	}
	return "session:" + o.SessionKey
}
