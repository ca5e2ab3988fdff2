package models

// Session holds the subject established by the party that authenticated the
// end user, plus arbitrary caller data. The core only carries it forward; it
// never owns or persists it.
type Session struct {
	Subject string                 `json:"subject"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// NewSession create a session for the given subject with optional caller data
func NewSession(subject string, data map[string]interface{}) *Session {
	return &Session{Subject: subject, Data: data}
}

// GetSubject the authenticated subject identifier
func (s *Session) GetSubject() string {
	return s.Subject
}

// GetData caller-supplied session data
func (s *Session) GetData() map[string]interface{} {
	return s.Data
}
