package get_availability

import "time"

// Request модель запроса на получение свободных слотов
type Request struct {
	StaffID       int64     // ID мастера
	ServiceID     int64     // ID услуги
	Date          time.Time // Календарная дата в часовом поясе мастера (время игнорируется)
	BufferMinutes *int      // Зазор вокруг существующих бронирований; nil = из политики
}

// Response модель ответа со списком свободных слотов
type Response struct {
	StaffID            int64
	ServiceID          int64
	Date               time.Time   // Начало дня в часовом поясе мастера
	Timezone           string      // Часовой пояс мастера
	DurationMinutes    int         // Длительность услуги
	GranularityMinutes int         // Шаг сетки слотов
	BufferMinutes      int         // Примененный зазор
	Slots              []time.Time // Времена начала, по возрастанию
}
