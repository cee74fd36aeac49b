package store

import "time"

// ProfileKind discriminates the user profile variant.
type ProfileKind string

// Profile kinds.
const (
	ProfileNone     ProfileKind = ""
	ProfileEmployee ProfileKind = "employee"
	ProfileCompany  ProfileKind = "company"
)

// Profile is the tagged profile variant resolved once when a user is loaded.
// Downstream code switches on Kind instead of probing for the presence of
// profile rows.
type Profile struct {
	Kind  ProfileKind `json:"kind"`
	Image string      `json:"image"`
}

// User is the messaging core's projection of a platform user. The full user
// entity is owned by the account subsystem; this core only reads it.
type User struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"created_at"`

	Profile Profile `gorm:"-" json:"profile"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// EmployeeProfile is the candidate-side profile row.
type EmployeeProfile struct {
	UserID   string `gorm:"primarykey;size:36" json:"user_id"`
	Image    string `gorm:"size:500" json:"image"`
	Headline string `gorm:"size:255" json:"headline"`
}

// TableName returns the table name for EmployeeProfile.
func (EmployeeProfile) TableName() string {
	return "employee_profiles"
}

// CompanyProfile is the employer-side profile row.
type CompanyProfile struct {
	UserID string `gorm:"primarykey;size:36" json:"user_id"`
	Logo   string `gorm:"size:500" json:"logo"`
	Name   string `gorm:"size:255" json:"name"`
}

// TableName returns the table name for CompanyProfile.
func (CompanyProfile) TableName() string {
	return "company_profiles"
}

// Message is a persisted 1:1 chat message. Exactly one sender and one
// receiver, both valid user identities at creation time.
type Message struct {
	ID         string    `gorm:"primarykey;size:36" json:"id"`
	SenderID   string    `gorm:"size:36;not null;index" json:"sender_id"`
	ReceiverID string    `gorm:"size:36;not null;index" json:"receiver_id"`
	Text       string    `gorm:"size:5000;not null" json:"text"`
	Read       bool      `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// NotificationType enumerates the notification categories the write paths
// emit.
type NotificationType string

// Notification types.
const (
	NotificationApplicationAccepted NotificationType = "application_accepted"
	NotificationApplicationRejected NotificationType = "application_rejected"
	NotificationProfileUpdated      NotificationType = "profile_updated"
	NotificationNewMessage          NotificationType = "new_message"
	NotificationJobAlert            NotificationType = "job_alert"
)

// Notification is a persisted notification owned by a single user.
type Notification struct {
	ID        string           `gorm:"primarykey;size:36" json:"id"`
	UserID    string           `gorm:"size:36;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"size:50;not null" json:"type"`
	Message   string           `gorm:"size:500;not null" json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// TableName returns the table name for Notification.
func (Notification) TableName() string {
	return "notifications"
}
