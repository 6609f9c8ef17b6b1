package instance

import "github.com/angelmondragon/orderbot-backend/pkg/env"

// ID names the running process in logs. Heroku-style DYNO wins over WORKER_ID.
func ID() string {
	return env.Get("DYNO", env.Get("WORKER_ID", "local"))
}
