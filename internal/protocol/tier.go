package protocol

// Tier is the privilege class of an operation.
type Tier uint8

const (
	// TierUser operations act on the caller's own identity.
	TierUser Tier = iota + 1
	// TierAdmin operations require a session whose user has is_admin set.
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierUser:
		return "user"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}
