package main

// General API documentation for swaggo. Run `swag init -g cmd/flowd/docs.go -o docs` to regenerate.
//
// @title           flowd API
// @version         1.0
// @description     HTTP API for pipeline selection, model loading and prediction.
//
// @contact.name   flowd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
