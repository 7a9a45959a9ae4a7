// Package models defines the data structures shared by the hrevents service.
package models

import "time"

// EmployeeStatusActive is the HR status that makes an employee eligible for
// directory sync and reminders.
const EmployeeStatusActive = "Active"

// DefaultCompanyName is used in messages when an employee's company cannot be resolved.
const DefaultCompanyName = "the team"

// ExternalIdentity is a Slack account as returned by the user directory.
// It is never persisted on its own.
type ExternalIdentity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name,omitempty"`
}

// IdentityMapping links an internal user email to a Slack account.
type IdentityMapping struct {
	User          string    `json:"user"`
	SlackUserID   string    `json:"slack_user_id"`
	SlackUsername string    `json:"slack_username"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Employee is the read-only view of an HR employee record.
type Employee struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id,omitempty"` // internal email, may be empty
	EmployeeName  string     `json:"employee_name"`
	Status        string     `json:"status"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	DateOfJoining *time.Time `json:"date_of_joining,omitempty"`
	Company       string     `json:"company,omitempty"`
}

// IsActive reports whether the employee is eligible for sync and reminders.
func (e *Employee) IsActive() bool {
	return e.Status == EmployeeStatusActive
}

// Company is the read-only view of an HR company record.
type Company struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
}

// Settings is the singleton Slack integration settings record.
type Settings struct {
	SlackBotToken string    `json:"-"`
	SlackChannel  string    `json:"slack_channel,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SettingsRecord is the persisted form of Settings with the bot token sealed.
type SettingsRecord struct {
	EncryptedBotToken []byte
	SlackChannel      string
	UpdatedAt         time.Time
}
