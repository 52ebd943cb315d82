package admin

// RoleCounts is the number of users holding each commercial role.
type RoleCounts struct {
	Subscriber int `json:"subscriber"`
	Affiliate  int `json:"affiliate"`
}
