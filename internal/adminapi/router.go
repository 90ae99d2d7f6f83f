package adminapi

// InitRouter attaches every admin api endpoint to the web server.
// webserver.Init must have been called first.
func InitRouter() {
	registerAuthRoutes()
	registerProductRoutes()
	registerDashboardRoutes()
	registerSystemRoutes()
}
