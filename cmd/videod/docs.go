package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           videod API
// @version         1.0
// @description     HTTP API for local text-to-video generation.
//
// @contact.name   videod maintainers
// @contact.url    https://github.com/your-org/videod
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
