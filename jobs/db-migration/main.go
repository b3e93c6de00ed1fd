package main

import (
	"log/slog"
)

func main() {
	dropIndexes()

	createIndexes()

	getIndexes()
}

func dropIndexes() {
	if !conf.TaskConfigs.DropIndexes.LmsUserDB {
		return
	}
	if err := userDBService.DropIndexForUsers(); err != nil {
		slog.Error("Error dropping indexes for users", slog.String("error", err.Error()))
		return
	}
	slog.Info("Dropped indexes for users")
}

func createIndexes() {
	if !conf.TaskConfigs.CreateIndexes.LmsUserDB {
		return
	}
	if err := userDBService.CreateDefaultIndexes(); err != nil {
		slog.Error("Error creating indexes for users", slog.String("error", err.Error()))
		return
	}
	slog.Info("Created indexes for users")
}

func getIndexes() {
	if !conf.TaskConfigs.GetIndexes.LmsUserDB {
		return
	}
	indexes, err := userDBService.ListIndexesForUsers()
	if err != nil {
		slog.Error("Error listing indexes for users", slog.String("error", err.Error()))
		return
	}
	for _, index := range indexes {
		slog.Info("Index for users", slog.Any("index", index))
	}
}
