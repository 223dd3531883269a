// Package mongo connects to MongoDB for the notification, outreach and
// audience stores.
//
// Configuration comes from the environment (see Config). New retries the
// initial connection and ping; NewWithDatabase returns the configured
// database handle:
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//
// Stores call EnsureIndexes at startup and use IsNoDocuments and
// IsDuplicateKey to translate driver errors into domain errors.
package mongo
