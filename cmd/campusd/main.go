package main

// @title Campus Ledger API
// @version 1.0.0
// @description Directory, enrollment ledger, grade engine and reports of a university campus
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	execute()
}
