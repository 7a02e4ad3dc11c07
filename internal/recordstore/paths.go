package recordstore

// Well-known paths. These mirror the layout of the production realtime
// database, so the firebase driver operates on the live data unchanged.
const (
	PathUsers              = "users"
	PathRecentPayments     = "recentPayments"
	PathAdminNotifications = "adminNotifications"
	PathQueries            = "queries"
	PathUserNotifications  = "userNotifications"
)

func UserPath(id string) string { return PathUsers + "/" + id }

func QueryPath(id string) string { return PathQueries + "/" + id }

func QueryRepliesPath(id string) string { return PathQueries + "/" + id + "/replies" }

func UserNotificationsPath(uid string) string { return PathUserNotifications + "/" + uid }
