package model

// ServiceCount количество записей на услугу за период
type ServiceCount struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	Count       int    `json:"count"`
}

// Stats агрегированная статистика за период
type Stats struct {
	Total          int64          `json:"total"`     // активные и завершённые
	Cancelled      int64          `json:"cancelled"` // отменённые, в выручку не входят
	Revenue        int64          `json:"revenue"`
	DueRevenue     int64          `json:"due_revenue"`     // дата визита уже наступила
	PlannedRevenue int64          `json:"planned_revenue"` // визиты в будущем
	TopServices    []ServiceCount `json:"top_services"`
	NewUsers       int64          `json:"new_users"`
}
