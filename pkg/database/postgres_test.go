package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/club-portal/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "club", Password: "pw", Name: "club_portal", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=club password=pw dbname=club_portal sslmode=disable", dsn)
}
