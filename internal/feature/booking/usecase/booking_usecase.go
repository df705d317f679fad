package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authentity "mindcare_backend/internal/feature/auth/domain/entity"
	"mindcare_backend/internal/feature/booking/domain/entity"
)

// SlotRepository は予約枠の永続化を抽象化します。
type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []entity.Slot) error
	FindOpenByDoctor(ctx context.Context, doctorID uint) ([]entity.Slot, error)
	FindByID(ctx context.Context, id uint) (*entity.Slot, error)
	// Reserve は枠の予約済みフラグを条件付きで立て、同じトランザクションで予約を作成します。
	// 既に予約済みの場合は ErrSlotNotAvailable を返します。
	Reserve(ctx context.Context, b *entity.Booking) error
}

// BookingRepository は予約の参照を抽象化します。
type BookingRepository interface {
	FindDetailsByUser(ctx context.Context, userID uint) ([]entity.BookingDetail, error)
}

// DoctorDirectory は予約処理が必要とする医師情報の参照です。
type DoctorDirectory interface {
	FindDoctorByUserID(ctx context.Context, userID uint) (*entity.DoctorSummary, error)
	FindDoctorByID(ctx context.Context, id uint) (*entity.DoctorSummary, error)
}

// Notifier は予約確定の通知を送ります。呼び出し元をブロックしてはいけません。
type Notifier interface {
	BookingConfirmed(ctx context.Context, to string, detail entity.BookingDetail)
}

// SlotInput は追加する枠の入力です。
type SlotInput struct {
	Date      string
	StartTime string
	EndTime   string
}

// BookingUsecase は予約ワークフローのユースケースです。
type BookingUsecase struct {
	slots    SlotRepository
	bookings BookingRepository
	doctors  DoctorDirectory
	notifier Notifier
}

// NewBookingUsecase はBookingUsecaseを生成します。notifier は nil でも構いません。
func NewBookingUsecase(slots SlotRepository, bookings BookingRepository, doctors DoctorDirectory, notifier Notifier) *BookingUsecase {
	return &BookingUsecase{slots: slots, bookings: bookings, doctors: doctors, notifier: notifier}
}

// AddSlots は呼び出し元医師の枠を一括登録します。
func (u *BookingUsecase) AddSlots(ctx context.Context, doctorUserID uint, in []SlotInput) ([]entity.Slot, error) {
	if len(in) == 0 {
		return nil, ErrSlotsRequired
	}

	doctor, err := u.doctors.FindDoctorByUserID(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}

	slots := make([]entity.Slot, 0, len(in))
	for i, s := range in {
		slot, err := normalizeSlot(s)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		slot.DoctorID = doctor.ID
		slots = append(slots, slot)
	}

	if err := u.slots.CreateBatch(ctx, slots); err != nil {
		return nil, fmt.Errorf("create slots: %w", err)
	}
	slog.Info("slots added", "doctor_id", doctor.ID, "count", len(slots))
	return slots, nil
}

// GetSlotsByDoctor は医師の未予約枠を返します。
func (u *BookingUsecase) GetSlotsByDoctor(ctx context.Context, doctorID uint) ([]entity.Slot, error) {
	return u.slots.FindOpenByDoctor(ctx, doctorID)
}

// BookSlot は枠を予約します。
//  1. 枠を読み込み、存在しないか予約済みなら ErrSlotNotAvailable
//  2. 医師情報を読み込む
//  3. 条件付き更新と予約作成を1トランザクションで行う
//  4. 医師名・専門分野を結合して返す
func (u *BookingUsecase) BookSlot(ctx context.Context, id *authentity.Identity, slotID uint) (*entity.BookingDetail, error) {
	if id.IsAdmin() {
		return nil, ErrAdminBooking
	}

	slot, err := u.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.IsBooked {
		return nil, ErrSlotNotAvailable
	}

	doctor, err := u.doctors.FindDoctorByID(ctx, slot.DoctorID)
	if err != nil {
		return nil, err
	}

	b := &entity.Booking{
		UserID:   id.UserID,
		DoctorID: doctor.ID,
		SlotID:   slot.ID,
		Fee:      doctor.FeePerHour,
		Status:   entity.StatusConfirmed,
	}
	if err := u.slots.Reserve(ctx, b); err != nil {
		return nil, err
	}

	slot.IsBooked = true
	detail := &entity.BookingDetail{
		Booking:    *b,
		DoctorName: doctor.Name,
		Speciality: doctor.Speciality,
		Slot:       slot,
	}
	slog.Info("slot booked", "booking_id", b.ID, "slot_id", slot.ID, "user_id", id.UserID)

	if u.notifier != nil && id.Email() != "" {
		u.notifier.BookingConfirmed(ctx, id.Email(), *detail)
	}
	return detail, nil
}

// GetUserBookings は呼び出し元の予約を医師情報と枠付きで返します。
func (u *BookingUsecase) GetUserBookings(ctx context.Context, userID uint) ([]entity.BookingDetail, error) {
	return u.bookings.FindDetailsByUser(ctx, userID)
}

// normalizeSlot は日付を YYYY-MM-DD に、時刻を HH:MM に正規化します。
func normalizeSlot(in SlotInput) (entity.Slot, error) {
	date, err := parseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return entity.Slot{}, fmt.Errorf("%w: date %q", ErrInvalidSlot, in.Date)
	}
	start, err := time.Parse("15:04", strings.TrimSpace(in.StartTime))
	if err != nil {
		return entity.Slot{}, fmt.Errorf("%w: startTime %q", ErrInvalidSlot, in.StartTime)
	}
	end, err := time.Parse("15:04", strings.TrimSpace(in.EndTime))
	if err != nil {
		return entity.Slot{}, fmt.Errorf("%w: endTime %q", ErrInvalidSlot, in.EndTime)
	}
	if !end.After(start) {
		return entity.Slot{}, fmt.Errorf("%w: endTime must be after startTime", ErrInvalidSlot)
	}
	return entity.Slot{
		Date:      date.Format(entity.DateLayout),
		StartTime: start.Format("15:04"),
		EndTime:   end.Format("15:04"),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(entity.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
