package memory

const (
	DivisionIDMixedA  = "kl-mixed-div-a"
	DivisionIDSingles = "kl-singles-div-1"
	SeasonID2026Q1    = "season-2026-q1"
)

// SeedRoster returns a roster with a handful of active members per division,
// enough for the dev profile to create singles and doubles matches.
func SeedRoster() *MembershipRoster {
	r := NewMembershipRoster()
	r.Add(DivisionIDSingles, "user-aisyah", "user-ben", "user-chen", "user-dina")
	r.Add(DivisionIDMixedA, "user-aisyah", "user-ben", "user-chen", "user-dina",
		"user-emil", "user-farah", "user-gopal", "user-hana")
	return r
}
