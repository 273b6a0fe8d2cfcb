// Package main runs the shortlink redirect service.
//
//	@title						Shortlink API
//	@version					1.0
//	@description				Short code redirects with cached resolution and reconciled click analytics
//	@host						localhost:8080
//	@BasePath					/
//	@schemes					http https
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"go.uber.org/fx"

	_ "github.com/sp3dr4/shortlink/docs"
	fxModules "github.com/sp3dr4/shortlink/internal/fx"
)

func main() {
	fx.New(fxModules.HTTPServerModules).Run()
}
