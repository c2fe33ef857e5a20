package models

import "time"

// Tenant — граница изоляции: каждый пользователь и каждая задача
// принадлежат ровно одному тенанту. Создаётся один раз и не изменяется.
type Tenant struct {
	ID string
	// Name уникально в пределах системы.
	Name      string
	CreatedAt time.Time
}
