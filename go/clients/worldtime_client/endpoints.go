package worldtime_client

const (
	// Base URL
	BaseURL = "https://worldtimeapi.org"

	// API Endpoints
	UTCEndpoint = "/api/timezone/Etc/UTC"

	// SourceName identifies samples produced by this client
	SourceName = "worldtime"
)
