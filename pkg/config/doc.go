// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env (struct tag parsing). Every infrastructure package
// in notifykit exposes a Config struct with env tags; binaries compose them:
//
//	type Config struct {
//		Mongo mongo.Config
//		Redis redis.Config
//		Email email.Config
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Values are parsed once per type and cached for the lifetime of the process.
package config
