package app

import "mindcoach-service/internal/domain"

// ComputeNavItems returns the navigation entries a role may see. Every call
// returns a fresh slice.
func ComputeNavItems(role domain.Role) []domain.NavItem {
	items := []domain.NavItem{
		{ID: "dashboard", Label: "Dashboard"},
		{ID: "reports", Label: "Reports"},
		{ID: "assessment", Label: "Assessment"},
		{ID: "daily", Label: "Daily Plan"},
	}
	if role == domain.RoleCoach {
		items = append(items, domain.NavItem{ID: "signup", Label: "SignUp"})
	}
	return items
}
