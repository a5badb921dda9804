package user

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the stored identity used as a fallback for checkout contact details.
type User struct {
	ID    uint
	Name  string
	Email string
	Phone string
	Role  Role
}
