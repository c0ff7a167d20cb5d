// Package app models the application registry.
package app

import "time"

// App is a registered tenant. AppID is derived deterministically from Name,
// so re-registering the same name yields the same id.
type App struct {
	AppID     string    `json:"app_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
