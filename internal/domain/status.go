package domain

// Status is a user's access level. Higher values grant a superset of the
// rights of lower ones. The numeric values are persisted and must not change.
type Status int

const (
	StatusRead  Status = 1
	StatusTrade Status = 3
	StatusAdmin Status = 5
)

var statusNames = map[Status]string{
	StatusRead:  "read",
	StatusTrade: "trade",
	StatusAdmin: "admin",
}

// ParseStatus maps an exact, case-sensitive status name to a Status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "read":
		return StatusRead, true
	case "trade":
		return StatusTrade, true
	case "admin":
		return StatusAdmin, true
	}
	return 0, false
}

// ParseStatusOr is ParseStatus with a fallback for unrecognized names.
func ParseStatusOr(s string, def Status) Status {
	if st, ok := ParseStatus(s); ok {
		return st
	}
	return def
}

// Valid reports whether s is one of the three known levels.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Allows reports whether s grants at least the rights of required.
func (s Status) Allows(required Status) bool {
	return s.Valid() && s >= required
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}
