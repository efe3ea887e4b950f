package events

// ClickRecorded is emitted after a resolve has been served and its click
// counted. The consumer folds these into per-day aggregates.
type ClickRecorded struct {
	EventID    string `json:"eventId"`
	Code       string `json:"code"`
	OccurredAt string `json:"occurredAt"`
}
