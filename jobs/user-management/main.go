package main

import (
	"log/slog"
	"time"
)

func main() {
	slog.Info("Starting user management job")
	start := time.Now()

	cleanUpUnverifiedUsers()
	cleanUpExpiredSessions()

	slog.Info("User management jobs completed", slog.Duration("duration", time.Since(start)))
}

func cleanUpUnverifiedUsers() {
	slog.Debug("Start cleaning up unverified users")

	createdBefore := time.Now().Add(-conf.UserManagementConfig.DeleteUnverifiedUsersAfter).Unix()
	count, err := userDBService.DeleteUnverifiedUsers(createdBefore)
	if err != nil {
		slog.Error("Error cleaning up unverified users", slog.String("error", err.Error()))
		return
	}

	slog.Info("Clean up unverified users finished", slog.Int("count", int(count)))
}

func cleanUpExpiredSessions() {
	slog.Debug("Start cleaning up expired refresh sessions")

	count, err := userDBService.RemoveExpiredRefreshSessions(time.Now().Unix())
	if err != nil {
		slog.Error("Error cleaning up expired refresh sessions", slog.String("error", err.Error()))
		return
	}

	slog.Info("Clean up expired refresh sessions finished", slog.Int("affectedUsers", int(count)))
}
