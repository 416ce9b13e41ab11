package main

import (
	"github.com/joho/godotenv"

	_ "metaextractor/internal/extractor/mssql"
	_ "metaextractor/internal/extractor/mysql"
	_ "metaextractor/internal/extractor/oracle"
	_ "metaextractor/internal/extractor/postgres"
	_ "metaextractor/internal/extractor/sqlite"
)

func main() {
	// Load .env file if it exists (silently ignore errors)
	_ = godotenv.Load()

	Execute()
}
