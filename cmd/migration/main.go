package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/config"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/store/mysqlstore"
)

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go -file=../../scripts/database.sql
func main() {
	filePtr := flag.String("file", "scripts/database.sql", "the sql file to execute")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("could not load configuration", "error", err)
	}
	if cfg.Driver != config.DriverMySQL {
		log.Fatal("migrations only exist for MySQL", "driver", cfg.Driver)
	}
	sqlDB, err := mysqlstore.Open(cfg.MySQL)
	if err != nil {
		log.Fatal("could not open database", "error", err)
	}
	db := sqlx.NewDb(sqlDB, "mysql")
	defer db.Close()

	readFile, err := os.Open(*filePtr) // nosemgrep
	if err != nil {
		log.Fatal("could not open sql file", "file", *filePtr, "error", err)
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	statements := 0
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := db.Exec(builder.String()); err != nil {
				log.Fatal("could not execute statement", "statement", statements+1, "error", err)
			}
			statements++
			builder = strings.Builder{}
		}
	}
	log.Info("migration finished", "file", *filePtr, "statements", statements)
}
