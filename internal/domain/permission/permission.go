// Package permission defines capability levels and the access keys that
// grant them on individual accounts.
package permission

// Level is the permission tier an access key grants on an account.
type Level int

const (
	LevelDeposit Level = iota
	LevelWithdraw
	LevelFull
	LevelAdmin
	LevelView
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDeposit:
		return "DEPOSIT"
	case LevelWithdraw:
		return "WITHDRAW"
	case LevelFull:
		return "FULL"
	case LevelAdmin:
		return "ADMIN"
	case LevelView:
		return "VIEW"
	default:
		return "UNKNOWN"
	}
}

// Authorizes reports whether a key holding level l satisfies a check for
// the required level. Full and Admin are super-privileges and satisfy any
// requirement; every other level satisfies only itself. The relation is
// not symmetric: a Deposit key never satisfies a check for Full, but a
// Full key satisfies a check for Deposit.
func (l Level) Authorizes(required Level) bool {
	if l == LevelFull || l == LevelAdmin {
		return true
	}
	return l == required
}

// AccessKey grants a capability level on exactly one account. Keys are
// minted by an admin-level authority and handed to a single principal;
// identity is the Secret alone.
type AccessKey struct {
	Secret string
	Level  Level
}
