package domain

// Record-level access decisions. Each function is total and pure: the
// result depends only on the principal's role and the owner/assignee
// ids already loaded on the study. Callers load the study first and
// translate false into a 403; nothing here touches storage or errors.

// CanViewStudy reports whether the principal may read the study.
// Admins see everything, biochemists their assigned studies, patients
// their own.
func CanViewStudy(p Principal, s Study) bool {
	if p.IsAdmin() {
		return true
	}
	switch p.Role {
	case RoleBiochemist:
		return s.BiochemistID != nil && *s.BiochemistID == p.UserID
	case RolePatient:
		return s.UserID == p.UserID
	}
	return false
}

// CanUpdateStudy reports whether the principal may mutate the study.
// Patients are read-only consumers and never get update rights. The
// admin bypass is the same branch as in CanViewStudy so a future
// action cannot drift from it.
func CanUpdateStudy(p Principal, s Study) bool {
	if p.IsAdmin() {
		return true
	}
	if p.Role == RoleBiochemist {
		return s.BiochemistID != nil && *s.BiochemistID == p.UserID
	}
	return false
}
