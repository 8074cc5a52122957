package app

import (
	"github.com/go-chi/oauth"
	"github.com/mbolis/formdesk/config"
	"github.com/mbolis/formdesk/database"
)

// App is what every controller is built from.
type App struct {
	Store  *database.Store
	Bearer *oauth.BearerServer
	Config config.Config
}
