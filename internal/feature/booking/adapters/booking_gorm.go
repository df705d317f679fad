// Package adapters は予約ワークフローの永続化と通知を実装します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mindcare_backend/internal/feature/booking/domain/entity"
	"mindcare_backend/internal/feature/booking/usecase"
	doctorentity "mindcare_backend/internal/feature/doctor/domain/entity"
	"mindcare_backend/internal/platform/db"
)

// bookingGorm は枠・予約・医師参照をまとめたGORM実装です。
// 枠の予約と予約作成を同じトランザクションで扱うため、1つの型にまとめています。
type bookingGorm struct {
	db *gorm.DB
}

// NewBookingGorm はbookingGormの新しいインスタンスを生成します。
func NewBookingGorm(db *gorm.DB) *bookingGorm {
	return &bookingGorm{db: db}
}

var (
	_ usecase.SlotRepository    = (*bookingGorm)(nil)
	_ usecase.BookingRepository = (*bookingGorm)(nil)
	_ usecase.DoctorDirectory   = (*bookingGorm)(nil)
)

// CreateBatch は枠を一括登録し、採番されたIDを各要素に設定します。
func (r *bookingGorm) CreateBatch(ctx context.Context, slots []entity.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

// FindOpenByDoctor は医師の未予約枠を日付・開始時刻順に返します。
func (r *bookingGorm) FindOpenByDoctor(ctx context.Context, doctorID uint) ([]entity.Slot, error) {
	var slots []entity.Slot
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND is_booked = ?", doctorID, false).
		Order("date ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

// FindByID は枠を取得します。存在しない場合は ErrSlotNotAvailable です。
func (r *bookingGorm) FindByID(ctx context.Context, id uint) (*entity.Slot, error) {
	var s entity.Slot
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, usecase.ErrSlotNotAvailable
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Reserve は is_booked=false の枠だけを true に更新し、同じトランザクションで予約を作成します。
// 更新行数が0なら他のリクエストが先に予約しています。
func (r *bookingGorm) Reserve(ctx context.Context, b *entity.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Slot{}).
			Where("id = ? AND is_booked = ?", b.SlotID, false).
			Update("is_booked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return usecase.ErrSlotNotAvailable
		}

		if err := tx.Create(b).Error; err != nil {
			if db.IsDuplicateKey(err) {
				return usecase.ErrSlotNotAvailable
			}
			return err
		}
		return nil
	})
}

// FindDetailsByUser はユーザーの予約を新しい順に、医師情報と枠を結合して返します。
func (r *bookingGorm) FindDetailsByUser(ctx context.Context, userID uint) ([]entity.BookingDetail, error) {
	tx := r.db.WithContext(ctx)

	var bookings []entity.Booking
	if err := tx.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return []entity.BookingDetail{}, nil
	}

	doctorIDs := make([]uint, 0, len(bookings))
	slotIDs := make([]uint, 0, len(bookings))
	for _, b := range bookings {
		doctorIDs = append(doctorIDs, b.DoctorID)
		slotIDs = append(slotIDs, b.SlotID)
	}

	var doctors []entity.DoctorSummary
	if err := tx.Model(&doctorentity.DoctorProfile{}).Where("id IN ?", doctorIDs).Find(&doctors).Error; err != nil {
		return nil, err
	}
	var slots []entity.Slot
	if err := tx.Where("id IN ?", slotIDs).Find(&slots).Error; err != nil {
		return nil, err
	}

	doctorByID := make(map[uint]entity.DoctorSummary, len(doctors))
	for _, d := range doctors {
		doctorByID[d.ID] = d
	}
	slotByID := make(map[uint]entity.Slot, len(slots))
	for _, s := range slots {
		slotByID[s.ID] = s
	}

	details := make([]entity.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		d := entity.BookingDetail{Booking: b}
		if doc, ok := doctorByID[b.DoctorID]; ok {
			d.DoctorName = doc.Name
			d.Speciality = doc.Speciality
		}
		if s, ok := slotByID[b.SlotID]; ok {
			d.Slot = &s
		}
		details = append(details, d)
	}
	return details, nil
}

// FindDoctorByUserID は医師ユーザーのプロフィール概要を取得します。
func (r *bookingGorm) FindDoctorByUserID(ctx context.Context, userID uint) (*entity.DoctorSummary, error) {
	return r.findDoctor(ctx, "user_id = ?", userID)
}

// FindDoctorByID はプロフィールIDで医師の概要を取得します。
func (r *bookingGorm) FindDoctorByID(ctx context.Context, id uint) (*entity.DoctorSummary, error) {
	return r.findDoctor(ctx, "id = ?", id)
}

func (r *bookingGorm) findDoctor(ctx context.Context, query string, arg uint) (*entity.DoctorSummary, error) {
	var d entity.DoctorSummary
	res := r.db.WithContext(ctx).Model(&doctorentity.DoctorProfile{}).Where(query, arg).Limit(1).Find(&d)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, usecase.ErrDoctorNotFound
	}
	return &d, nil
}
