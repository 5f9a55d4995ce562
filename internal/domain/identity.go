package domain

// Identity is the role-specific view of an account. Exactly one of
// MemberIdentity, TrainerIdentity or AdminIdentity is produced for a user, so
// callers switch on the concrete type instead of probing optional fields.
type Identity interface {
	Account() *User
	isIdentity()
}

// MemberIdentity is a regular gym member.
type MemberIdentity struct {
	User *User
}

// TrainerIdentity is a trainer together with their profile. Profile may be nil
// only while the profile invariant is being repaired.
type TrainerIdentity struct {
	User    *User
	Profile *TrainerProfile
}

// AdminIdentity is a staff administrator.
type AdminIdentity struct {
	User *User
}

func (m MemberIdentity) Account() *User  { return m.User }
func (t TrainerIdentity) Account() *User { return t.User }
func (a AdminIdentity) Account() *User   { return a.User }

func (MemberIdentity) isIdentity()  {}
func (TrainerIdentity) isIdentity() {}
func (AdminIdentity) isIdentity()   {}

// NewIdentity builds the variant matching the user's role. Unknown roles are
// treated as members.
func NewIdentity(user *User, profile *TrainerProfile) Identity {
	switch user.Role {
	case RoleTrainer:
		return TrainerIdentity{User: user, Profile: profile}
	case RoleAdmin:
		return AdminIdentity{User: user}
	default:
		return MemberIdentity{User: user}
	}
}
