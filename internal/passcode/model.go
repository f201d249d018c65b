package passcode

import "time"

// CodeLength is the number of decimal digits in an issued passcode.
const CodeLength = 6

// Record is a single-use numeric code bound to a user. Records are
// immutable except for Used, which transitions false to true exactly once
// at redemption. Records carry no expiry and are never deleted.
type Record struct {
	ID        string
	UserID    string
	Code      string
	CreatedAt time.Time
	Used      bool
}
