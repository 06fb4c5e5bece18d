package crm

import "time"

// Lead is a prospect. Phone is the natural dedupe key and is always stored
// in normalized form.
type Lead struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string `gorm:"column:first_name;not null" json:"first_name"`
	LastName  string `gorm:"column:last_name;not null" json:"last_name"`
	Phone     string `gorm:"column:phone;not null;uniqueIndex:idx_lead_phone" json:"phone"`
	Email     string `gorm:"column:email;index" json:"email"`

	LicenseGoal string `gorm:"column:license_goal;not null;index" json:"license_goal"`
	Source      string `gorm:"column:source;not null;index" json:"source"`
	Status      string `gorm:"column:status;not null;index" json:"status"`

	PainPoints         string     `gorm:"column:pain_points" json:"pain_points,omitempty"`
	EmploymentStatus   string     `gorm:"column:employment_status" json:"employment_status,omitempty"`
	UrgencyLevel       string     `gorm:"column:urgency_level" json:"urgency_level,omitempty"`
	PaymentPreference  string     `gorm:"column:payment_preference" json:"payment_preference,omitempty"`
	PaymentStatus      string     `gorm:"column:payment_status;not null" json:"payment_status"`
	ConfirmationNumber string     `gorm:"column:confirmation_number" json:"confirmation_number,omitempty"`
	AgentName          string     `gorm:"column:agent_name" json:"agent_name"`
	Supervisor         string     `gorm:"column:supervisor" json:"supervisor"`
	CallSummary        string     `gorm:"column:call_summary" json:"call_summary,omitempty"`
	CallTimestamp      *time.Time `gorm:"column:call_timestamp" json:"call_timestamp,omitempty"`
	ConversationID     string     `gorm:"column:conversation_id;index" json:"conversation_id,omitempty"`
	Notes              string     `gorm:"column:notes" json:"notes,omitempty"`

	CallAttempts      int        `gorm:"column:call_attempts;not null;default:0" json:"call_attempts"`
	LastCallAttemptAt *time.Time `gorm:"column:last_call_attempt_at" json:"last_call_attempt_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	CallRecords  []CallRecord  `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"call_records,omitempty"`
	Payments     []Payment     `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	Enrollments  []Enrollment  `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"appointments,omitempty"`
}

func (Lead) TableName() string { return "lead" }

func (l *Lead) FullName() string {
	if l == nil {
		return ""
	}
	switch {
	case l.FirstName == "" && l.LastName == "":
		return UnknownName
	case l.LastName == "":
		return l.FirstName
	case l.FirstName == "":
		return l.LastName
	}
	return l.FirstName + " " + l.LastName
}

// LeadStatusHistory is appended for every applied lifecycle transition.
type LeadStatusHistory struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID     uint      `gorm:"column:lead_id;not null;index" json:"lead_id"`
	FromStatus string    `gorm:"column:from_status" json:"from_status"`
	ToStatus   string    `gorm:"column:to_status;not null" json:"to_status"`
	Event      string    `gorm:"column:event;not null" json:"event"`
	Forced     bool      `gorm:"column:forced;not null;default:false" json:"forced"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`

	Lead *Lead `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"-"`
}

func (LeadStatusHistory) TableName() string { return "lead_status_history" }
