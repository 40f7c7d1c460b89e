package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sangkips/kassa-api/internal/config"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/pkg/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SimulatedDeviceSerial is the device record seeded for the simulated TSE driver.
const SimulatedDeviceSerial = "SIM-TSE-0001"

var defaultRoles = []string{
	entity.RoleAdministrator,
	entity.RoleAdmin,
	entity.RoleManager,
	entity.RoleCashier,
}

// SeedDefaultData seeds roles, the administrator account, a first cash
// register and, for the simulated TSE driver, a device record.
func SeedDefaultData(db *gorm.DB, cfg *config.Config) error {
	slog.Info("seeding default data")

	roles := make(map[string]entity.Role, len(defaultRoles))
	for _, name := range defaultRoles {
		role := entity.Role{Name: name}
		if err := db.Where(entity.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		roles[name] = role
	}

	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := seedAdmin(db, cfg.Admin, roles); err != nil {
			return err
		}
	}

	var registers int64
	if err := db.Model(&entity.CashRegister{}).Count(&registers).Error; err != nil {
		return err
	}
	if registers == 0 {
		register := entity.CashRegister{RegisterNumber: 1, Name: "Kasse 1", CurrentBalance: decimal.Zero}
		if err := db.Create(&register).Error; err != nil {
			return fmt.Errorf("seed cash register: %w", err)
		}
	}

	if cfg.TSE.Driver == "simulated" {
		device := entity.TseDevice{
			SerialNumber:        SimulatedDeviceSerial,
			Description:         "Simulated signature device",
			FinanzOnlineEnabled: true,
			CertificateStatus:   "Unknown",
		}
		if err := db.Where(entity.TseDevice{SerialNumber: SimulatedDeviceSerial}).FirstOrCreate(&device).Error; err != nil {
			return fmt.Errorf("seed tse device: %w", err)
		}
	}

	slog.Info("default data seeding completed")
	return nil
}

// seedAdmin creates the administrator with both administrator role spellings.
func seedAdmin(db *gorm.DB, admin config.AdminConfig, roles map[string]entity.Role) error {
	var existing entity.User
	err := db.Where("username = ?", admin.Username).First(&existing).Error
	if err == nil {
		slog.Info("admin user already exists", "username", admin.Username)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := entity.User{
		Username: admin.Username,
		FullName: "Administrator",
		Password: hashed,
		Roles:    []entity.Role{roles[entity.RoleAdministrator], roles[entity.RoleAdmin]},
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	slog.Info("admin user created", "username", admin.Username)
	return nil
}
