package presentation

import "github.com/zatekoja/mypadicare/internal/domain/entities"

// Session carries per-user display state. It is passed explicitly to every
// render call.
type Session struct {
	Language entities.Language
}

// NewSession builds a session from a raw language code such as "ms-MY".
func NewSession(code string) Session {
	return Session{Language: entities.ParseLanguage(code)}
}

// WithLanguage returns a copy of s using lang.
func (s Session) WithLanguage(code string) Session {
	s.Language = entities.ParseLanguage(code)
	return s
}
