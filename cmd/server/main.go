package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/fittrack/webclient/internal/components/activity"
	"github.com/fittrack/webclient/internal/components/session"
	"github.com/fittrack/webclient/internal/server"
	"github.com/fittrack/webclient/internal/shared/config"
	"github.com/fittrack/webclient/internal/shared/fitapi"
	"github.com/fittrack/webclient/internal/shared/logging"
)

func main() {
	// Load .env file (ignore error in production where env vars are set directly)
	_ = godotenv.Load()

	fx.New(
		fx.Provide(
			config.NewConfig,
			config.NewSecretKey,
			logging.NewLogger,
			fitapi.NewClient,
			session.NewOAuthProvider,
			session.NewManager,
			fx.Annotate(
				session.NewRouter,
				fx.ResultTags(`name:"sessionRouter"`),
			),
			activity.NewStore,
			fx.Annotate(
				activity.NewRouter,
				fx.ResultTags(`name:"activityRouter"`),
			),
			server.NewHealthSrvc,
			server.NewHealthHandler,
			server.NewServer,
		),
		fx.Invoke(
			registerLogoutHooks,
			server.Register,
		),
	).Run()
}

// registerLogoutHooks wires session teardown to cache disposal so a
// logged-out session leaves no activity data behind.
func registerLogoutHooks(manager *session.Manager, store *activity.Store) {
	manager.OnLogout(store.DropSession)
}
