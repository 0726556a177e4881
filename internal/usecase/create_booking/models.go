package create_booking

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	StaffID   int64     // ID мастера
	ServiceID int64     // ID услуги
	ClientID  int64     // ID клиента
	StartTime time.Time // Время начала (точность до минуты)
	CreatedBy int64     // ID пользователя, создающего бронирование
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64
	SalonID         int64
	StaffID         int64
	ServiceID       int64
	ServiceVersion  int
	ClientID        int64
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Price           int64
	Status          string
	PaymentStatus   string
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
