package models

// Navigation targets returned by controllers in place of client-side routing
const (
	PathLogin                = "/login"
	PathCandidateDashboard   = "/candidate/dashboard"
	PathInterviewerDashboard = "/interviewer/dashboard"
	PathGoogleAuthFailed     = "/login?error=google_auth_failed"
)

// TakePath is where a candidate takes an assessment
func TakePath(assessmentID string) string {
	return "/candidate/assessments/" + assessmentID + "/take"
}

// ResultPath is where a candidate sees their result for an assessment
func ResultPath(assessmentID string) string {
	return "/candidate/assessments/" + assessmentID + "/result"
}

// DashboardPath returns the landing page for a role
func DashboardPath(role Role) string {
	if role == RoleInterviewer || role == RoleAdmin {
		return PathInterviewerDashboard
	}
	return PathCandidateDashboard
}
