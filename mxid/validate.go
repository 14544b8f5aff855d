package mxid

import (
	"github.com/go-playground/validator/v10"
)

// Validation tags registered by RegisterValidations.
const (
	TagServerName = "mx_server_name"
	TagRoomID     = "mx_room_id"
	TagEventID    = "mx_event_id"
	TagUserID     = "mx_user_id"
	TagMxcURI     = "mx_mxc_uri"
)

// RegisterValidations adds identifier checks to v, so plain string fields can
// be validated with e.g. `validate:"mx_user_id"`.
func RegisterValidations(v *validator.Validate) error {
	checks := map[string]func(string) error{
		TagServerName: func(s string) error { _, err := ParseServerName(s); return err },
		TagRoomID:     func(s string) error { _, err := ParseRoomID(s); return err },
		TagEventID:    func(s string) error { _, err := ParseEventID(s); return err },
		TagUserID:     func(s string) error { _, err := ParseUserID(s); return err },
		TagMxcURI:     func(s string) error { _, err := ParseMxcURI(s); return err },
	}
	for tag, check := range checks {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String()) == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
