package transfer

type PostCreation struct {
	Title         string   `json:"title"`
	Keywords      []string `json:"keywords"`
	ContentType   string   `json:"content_type"`
	Content       string   `json:"content"`
	ScheduledTime string   `json:"scheduled_time"`
	Platforms     []string `json:"platforms"`
	Recurrence    string   `json:"recurrence"`
}

type PostUpdate struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	ScheduledTime string   `json:"scheduled_time"`
	Platforms     []string `json:"platforms"`
	Recurrence    string   `json:"recurrence"`
}

type SettingsUpdate struct {
	WebhookURL       string `json:"webhook_url"`
	DefaultPlatforms string `json:"default_platforms"`
}
