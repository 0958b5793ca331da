package models

// Policy carries the workflow limits the domain enforces. It is an explicit
// value handed to the service at construction so tests can tighten or loosen
// limits without touching globals.
type Policy struct {
	MaxSubjectLength       int
	MaxMessageLength       int
	MinExpirationDays      int
	MaxExpirationDays      int
	DefaultExpirationDays  int
	MaxDocuments           int
	MaxRecipients          int
	MaxRecipientNameLength int
	AccessCodeLength       int
	// MaxVerifyAttempts bounds access-code verification tries per
	// envelope+email before the limiter starts answering not-found.
	MaxVerifyAttempts int
}

// DefaultPolicy returns the production limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxSubjectLength:       200,
		MaxMessageLength:       5000,
		MinExpirationDays:      1,
		MaxExpirationDays:      365,
		DefaultExpirationDays:  30,
		MaxDocuments:           50,
		MaxRecipients:          100,
		MaxRecipientNameLength: 200,
		AccessCodeLength:       6,
		MaxVerifyAttempts:      10,
	}
}
