package domain

// Role is the coarse grammatical role of a token or a seed sense.
type Role string

const (
	RoleNoun      Role = "noun"
	RoleVerb      Role = "verb"
	RoleAdjective Role = "adjective"
	RoleAdverb    Role = "adverb"
	RoleOther     Role = "other"
)

// ScoredRoles lists the roles that take part in role-scoped scoring, in a
// fixed order.
var ScoredRoles = []Role{RoleNoun, RoleVerb, RoleAdjective, RoleAdverb}

// Scored reports whether the role is one of the four scored roles.
func (r Role) Scored() bool {
	switch r {
	case RoleNoun, RoleVerb, RoleAdjective, RoleAdverb:
		return true
	default:
		return false
	}
}
