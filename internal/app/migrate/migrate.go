// Package migrate はリレーショナルDBのスキーマを作成・更新します。
package migrate

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	authadapters "mindcare_backend/internal/feature/auth/adapters"
	authentity "mindcare_backend/internal/feature/auth/domain/entity"
	bookingentity "mindcare_backend/internal/feature/booking/domain/entity"
	doctorentity "mindcare_backend/internal/feature/doctor/domain/entity"
	intakeentity "mindcare_backend/internal/feature/intake/domain/entity"
)

// Models はマイグレーション対象のモデル一覧です。
func Models() []any {
	return []any{
		&authentity.User{},
		&authadapters.SessionModel{},
		&authentity.AdminPrincipal{},
		&authentity.AdminAuditEvent{},
		&doctorentity.DoctorProfile{},
		&bookingentity.Slot{},
		&bookingentity.Booking{},
		&intakeentity.UserForm{},
	}
}

// Run は全モデルをAutoMigrateします。
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	slog.Info("database migration completed", "models", len(Models()))
	return nil
}
