package discord

import "runbot/internal/domain"

// DomainErrorKey maps a domain error to the i18n key of its user-facing
// message. Unknown (non-domain) errors map to the generic key so internals
// never leak into replies.
func DomainErrorKey(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.Code(err); code != "" {
		return "error." + code
	}
	return "error.generic"
}
