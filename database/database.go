package database

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	host      string
	username  string
	password  string
	database  string
	port      uint32
	dataPath  string
	keepAlive bool
	embedded  *embeddedpostgres.EmbeddedPostgres
	orm       *gorm.DB
}

// NewDatabase connects to a postgres instance. When host is "embedded" it
// starts an embedded postgres under dataPath instead, which is what local
// development and tests use. The returned close function stops the embedded
// instance unless keepAlive is set.
func NewDatabase(username, password, database string, port uint32, dataPath, host string, keepAlive bool) (*Database, func() error, error) {
	db := &Database{
		host:      host,
		username:  username,
		password:  password,
		database:  database,
		port:      port,
		dataPath:  dataPath,
		keepAlive: keepAlive,
	}

	if db.host == "embedded" {
		db.embedded = embeddedpostgres.NewDatabase(
			embeddedpostgres.DefaultConfig().
				Username(db.username).
				Password(db.password).
				Database(db.database).
				Port(db.port).
				DataPath(dataPath),
		)
		if err := db.embedded.Start(); err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded database: %w", err)
		}
	}

	conn, err := sql.Open("postgres", db.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.Open(db.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect GORM: %w", err)
	}
	db.orm = gormDB

	log.Info("✅ DB started")

	return db, db.close, nil
}

// GetDSN returns the keyword/value connection string for the database.
func (d *Database) GetDSN() string {
	host := d.host
	if host == "embedded" {
		host = "localhost"
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=disable", host, d.port, d.username, d.password, d.database)
}

// GetConnectionURL returns the URL form of the connection string.
func (d *Database) GetConnectionURL() string {
	host := d.host
	if host == "embedded" {
		host = "localhost"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", d.username, d.password, host, d.port, d.database)
}

func (d *Database) ORM() *gorm.DB {
	return d.orm
}

func (d *Database) close() error {
	if d.embedded == nil || d.keepAlive {
		return nil
	}
	if err := d.embedded.Stop(); err != nil {
		return fmt.Errorf("failed to stop embedded database: %w", err)
	}

	return nil
}
