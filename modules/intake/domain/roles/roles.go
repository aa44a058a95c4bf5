package roles

const (
	Patient    = "patient"
	Staff      = "staff"
	StaffAdmin = "staff_admin"
)

// Required reports whether a user holding names goes through the full intake
// progress, which is the case for patients and staff.
func Required(names []string) bool {
	for _, n := range names {
		switch n {
		case Patient, Staff, StaffAdmin:
			return true
		}
	}
	return false
}
