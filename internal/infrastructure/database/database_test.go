package database_test

import (
	"testing"

	"github.com/sangkips/kassa-api/internal/config"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/infrastructure/database"
	"github.com/sangkips/kassa-api/internal/infrastructure/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(&config.DatabaseConfig{Driver: "oracle"}, false)
	assert.Error(t, err)
}

func TestSeedDefaultDataIsRepeatable(t *testing.T) {
	db := dbtest.New(t)
	cfg := &config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: "s3cret"},
		TSE:   config.TSEConfig{Driver: "simulated"},
	}

	require.NoError(t, database.SeedDefaultData(db, cfg))
	require.NoError(t, database.SeedDefaultData(db, cfg))

	var roles int64
	require.NoError(t, db.Model(&entity.Role{}).Count(&roles).Error)
	assert.EqualValues(t, 4, roles)

	var admin entity.User
	require.NoError(t, db.Preload("Roles").First(&admin, "username = ?", "admin").Error)
	assert.True(t, admin.HasRole(entity.RoleAdministrator))
	assert.True(t, admin.HasRole(entity.RoleAdmin))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("s3cret")))

	var registers int64
	require.NoError(t, db.Model(&entity.CashRegister{}).Count(&registers).Error)
	assert.EqualValues(t, 1, registers)

	var device entity.TseDevice
	require.NoError(t, db.First(&device, "serial_number = ?", database.SimulatedDeviceSerial).Error)
	assert.True(t, device.FinanzOnlineEnabled)
	assert.False(t, device.IsConnected)
}
