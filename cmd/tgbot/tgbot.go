package main

import (
	"context"

	"github.com/IdeaDrop/TrelloBOT/internal/app/tbot"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()

	app, err := tbot.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("Failed to initialize app: %v", err)
	}
	app.Run()
}
