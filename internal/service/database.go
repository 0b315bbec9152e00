package service

import (
	"gitlab.com/dirk.krummacker/contacts-directory/internal/config"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store/mongostore"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store/mysqlstore"
)

// OpenStore connects to the database selected by the configuration.
func OpenStore(cfg config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.Driver == config.DriverMongo {
		s, err := mongostore.Connect(cfg.MongoURI, cfg.MongoDatabase, mongostore.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	sqlDB, err := mysqlstore.Open(cfg.MySQL)
	if err != nil {
		return nil, err
	}
	s, err := mysqlstore.New(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}
