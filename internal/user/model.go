package user

import "time"

// User is a phone-identified account. Role is one of customer|fixer, chosen
// once at onboarding, or the empty string before onboarding completes.
type User struct {
	ID         string    `json:"id"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Latitude   float64   `json:"latitude,omitempty"`
	Longitude  float64   `json:"longitude,omitempty"`
	Skills     []string  `json:"skills,omitempty"`
	AvgRating  float64   `json:"avg_rating"`
	TotalJobs  int       `json:"total_jobs"`
	IsVerified bool      `json:"is_verified"`
	IsOnline   bool      `json:"is_online"`
	CreatedAt  time.Time `json:"created_at"`
}
