package models

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const (
	CarAvailable   = "available"
	CarRented      = "rented"
	CarMaintenance = "maintenance"
)

const (
	SlotAvailable   = "available"
	SlotOccupied    = "occupied"
	SlotReserved    = "reserved"
	SlotMaintenance = "maintenance"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

const (
	MethodOrangeMoney = "orange_money"
	MethodAfrimoney   = "afrimoney"
	MethodCard        = "card"
)

const (
	// MinPhoneDigits минимальная длина номера для мобильных денег
	MinPhoneDigits = 8

	// DefaultPaymentDelaySeconds длительность имитации обработки платежа
	DefaultPaymentDelaySeconds = 3

	// DefaultMaxBookingDays горизонт бронирования по умолчанию
	DefaultMaxBookingDays = 365

	// DefaultRoleCacheTTL время жизни роли пользователя в Redis (секунды)
	DefaultRoleCacheTTL = 15 * 60

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128
)

func ValidUserRole(role string) bool {
	return role == RoleAdmin || role == RoleCustomer
}

func ValidCarStatus(status string) bool {
	switch status {
	case CarAvailable, CarRented, CarMaintenance:
		return true
	}
	return false
}

func ValidSlotStatus(status string) bool {
	switch status {
	case SlotAvailable, SlotOccupied, SlotReserved, SlotMaintenance:
		return true
	}
	return false
}

func ValidBookingStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case MethodOrangeMoney, MethodAfrimoney, MethodCard:
		return true
	}
	return false
}

// ActiveBookingStatuses are the statuses that hold a resource for its time window.
var ActiveBookingStatuses = []string{StatusPending, StatusConfirmed, StatusActive}
