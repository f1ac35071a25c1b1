package services

import "go-pantheon/pkg/config"

// Config holds the cron schedules of the world coordinator. Schedules use
// the six field form with seconds.
type Config struct {
	MaintenanceSchedule string
	SaveSchedule        string
}

func DefaultConfig() Config {
	return Config{
		MaintenanceSchedule: "0 */5 * * * *",
		SaveSchedule:        "30 */10 * * * *",
	}
}

// ConfigFromEnv reads MAINTENANCE_SCHEDULE and SAVE_SCHEDULE over the defaults
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		MaintenanceSchedule: config.GetEnv("MAINTENANCE_SCHEDULE", def.MaintenanceSchedule),
		SaveSchedule:        config.GetEnv("SAVE_SCHEDULE", def.SaveSchedule),
	}
}
