package rbac

const (
	RoleAuthor    = "author"
	RoleCandidate = "candidate"
	RoleAdmin     = "admin"
)

const (
	PermItemUpload     = "item:upload"
	PermItemView       = "item:view"
	PermItemSource     = "item:source"
	PermSessionStart   = "session:start"
	PermSessionRespond = "session:respond"
	PermSessionView    = "session:view"
	PermSessionViewAll = "session:view-all"

	PermSessionRespondAny = "session:respond-any"
	PermEventsView     = "events:view"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	RoleCandidate: {
		PermItemView,
		PermSessionStart,
		PermSessionRespond,
		PermSessionView,
	},
	RoleAuthor: {
		"item:*",
		PermSessionViewAll,
	},
	RoleAdmin: {
		"*", // everything
	},
}
