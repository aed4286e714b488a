package dto

// AnalyticsQuery captures shared analytics query parameters.
type AnalyticsQuery struct {
	Country  string `form:"country" conform:"trim"`
	From     string `form:"from"`
	To       string `form:"to"`
	Interval string `form:"interval"`
}
