package services

// Notifier — отправка realtime-события всем активным соединениям пользователя.
// Реализуется realtime.Hub; доставка best-effort.
type Notifier interface {
	SendToUser(userID int, event interface{})
}

// NopNotifier используется там, где realtime-доставка не нужна.
type NopNotifier struct{}

func (NopNotifier) SendToUser(int, interface{}) {}
