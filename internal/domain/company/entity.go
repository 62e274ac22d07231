package company

import "time"

type Company struct {
	ID        string
	Name      string
	Username  string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
