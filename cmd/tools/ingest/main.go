package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"main/internal/archive"
	"main/internal/auditlog"
	"main/pkg/conn"
)

func main() {
	path := flag.String("path", "testdata/audit/journal.log", "Audit journal path")
	keyEnv := flag.String("key-env", "GATE_AUDIT_KEY", "Environment variable holding the hex audit key")
	pgURL := flag.String("pg-url", "", "PostgreSQL connection string (overrides host/user flags)")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "gated", "PostgreSQL user")
	pgPasswordEnv := flag.String("pg-password-env", "GATE_PG_PASSWORD", "Environment variable holding the PostgreSQL password")
	pgDatabase := flag.String("pg-database", "gated", "PostgreSQL database")
	flag.Parse()

	if err := run(*path, *keyEnv, conn.Option{
		Host:       *pgHost,
		Port:       *pgPort,
		User:       *pgUser,
		Password:   os.Getenv(*pgPasswordEnv),
		Database:   *pgDatabase,
		ConnString: *pgURL,
	}); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
}

func run(path, keyEnv string, option conn.Option) error {
	raw := os.Getenv(keyEnv)
	if raw == "" {
		return fmt.Errorf("env %s is not set", keyEnv)
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("env %s is not hex: %w", keyEnv, err)
	}

	client, err := conn.New(option)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	store, err := archive.NewStore(client)
	if err != nil {
		return err
	}

	var archived int
	err = auditlog.Replay(path, key, func(r auditlog.Record) error {
		if err := store.Insert(archive.FromAudit(r)); err != nil {
			return err
		}
		archived++
		return nil
	})
	if err != nil {
		return fmt.Errorf("after %d archived records: %w", archived, err)
	}

	total, err := store.Count()
	if err != nil {
		return err
	}
	log.Printf("archived %d records (table total %d)", archived, total)
	return nil
}
