package domain

// Notification is the toast shown above the dashboard.
type Notification struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title"`
	Desc    string `json:"desc"`
}
