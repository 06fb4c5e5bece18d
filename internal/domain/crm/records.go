package crm

import "time"

// CallRecord is one voice interaction. Immutable once written.
type CallRecord struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID          uint      `gorm:"column:lead_id;not null;index" json:"lead_id"`
	CallID          string    `gorm:"column:call_id;not null;uniqueIndex:idx_call_record_call_id" json:"call_id"`
	Transcript      string    `gorm:"column:transcript" json:"transcript,omitempty"`
	Summary         string    `gorm:"column:summary" json:"summary,omitempty"`
	Sentiment       string    `gorm:"column:sentiment" json:"sentiment,omitempty"`
	DurationSeconds int       `gorm:"column:duration_seconds;not null;default:0" json:"duration_seconds"`
	Intent          string    `gorm:"column:intent;index" json:"intent,omitempty"`
	AgentConfidence float64   `gorm:"column:agent_confidence;not null;default:0" json:"agent_confidence"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`
}

func (CallRecord) TableName() string { return "call_record" }

type Payment struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID        uint      `gorm:"column:lead_id;not null;index" json:"lead_id"`
	PlanChosen    string    `gorm:"column:plan_chosen;not null;index" json:"plan_chosen"`
	Amount        float64   `gorm:"column:amount;not null" json:"amount"`
	Currency      string    `gorm:"column:currency;not null;default:'usd'" json:"currency"`
	Status        string    `gorm:"column:status;not null;index" json:"status"`
	TransactionID string    `gorm:"column:transaction_id;index" json:"transaction_id,omitempty"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

type Enrollment struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID             uint       `gorm:"column:lead_id;not null;index" json:"lead_id"`
	CourseCode         string     `gorm:"column:course_code;not null;index" json:"course_code"`
	Cohort             string     `gorm:"column:cohort;not null" json:"cohort"`
	StartDate          *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	Status             string     `gorm:"column:status;not null;index" json:"status"`
	ProgressPercentage int        `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`

	Documents []EnrollmentDocument `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (Enrollment) TableName() string { return "enrollment" }

type Appointment struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID          uint      `gorm:"column:lead_id;not null;index" json:"lead_id"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	Description     string    `gorm:"column:description" json:"description,omitempty"`
	DateTime        time.Time `gorm:"column:date_time;not null;index" json:"date_time"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null;default:30" json:"duration_minutes"`
	Type            string    `gorm:"column:type;not null" json:"type"`
	Location        string    `gorm:"column:location" json:"location,omitempty"`
	Status          string    `gorm:"column:status;not null;index" json:"status"`
	Notes           string    `gorm:"column:notes" json:"notes,omitempty"`
	ReminderSent    bool      `gorm:"column:reminder_sent;not null;default:false" json:"reminder_sent"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (Appointment) TableName() string { return "appointment" }

type EnrollmentDocument struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EnrollmentID uint      `gorm:"column:enrollment_id;not null;index" json:"enrollment_id"`
	FileName     string    `gorm:"column:file_name;not null" json:"file_name"`
	FileSize     int64     `gorm:"column:file_size;not null;default:0" json:"file_size"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	StoragePath  string    `gorm:"column:storage_path" json:"storage_path,omitempty"`
	DocumentType string    `gorm:"column:document_type;not null" json:"document_type"`
	UploadedBy   string    `gorm:"column:uploaded_by" json:"uploaded_by,omitempty"`
	Status       string    `gorm:"column:status;not null" json:"status"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
}

func (EnrollmentDocument) TableName() string { return "enrollment_document" }
