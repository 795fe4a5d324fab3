package models

import (
	"time"
)

// User is an operator account for the admin API
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(50);default:'agent'" json:"role"`
	TenantID     string    `gorm:"type:varchar(100);index;default:'default'" json:"tenant_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Contact represents a WhatsApp contact
type Contact struct {
	WaID          string    `gorm:"primaryKey" json:"wa_id"` // WhatsApp ID (phone number)
	Name          string    `gorm:"type:varchar(255)" json:"name"`
	Email         string    `gorm:"type:varchar(255)" json:"email"`
	ProfilePicURL string    `gorm:"type:text" json:"profile_pic_url"`
	Tags          string    `gorm:"type:text" json:"tags"` // Comma separated tags
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Segment groups contacts by tag for campaign targeting
type Segment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Tag         string    `gorm:"type:varchar(100);not null" json:"tag"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Segment) TableName() string {
	return "segments"
}

// Template statuses
const (
	TemplateStatusDraft    = "DRAFT"
	TemplateStatusPending  = "PENDING"
	TemplateStatusApproved = "APPROVED"
	TemplateStatusRejected = "REJECTED"
)

// Template represents a WhatsApp message template
type Template struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);index" json:"name"`
	Language        string    `gorm:"type:varchar(50)" json:"language"`
	Category        string    `gorm:"type:varchar(100)" json:"category"`
	Status          string    `gorm:"type:varchar(50);default:'DRAFT'" json:"status"`
	Document        string    `gorm:"type:text" json:"document"` // JSON template document
	QualityScore    int       `json:"quality_score"`
	QualityRating   string    `gorm:"type:varchar(50)" json:"quality_rating"`
	RemoteID        string    `gorm:"type:varchar(255);index" json:"remote_id"`
	RejectionReason string    `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// Campaign statuses
const (
	CampaignStatusDraft     = "DRAFT"
	CampaignStatusScheduled = "SCHEDULED"
	CampaignStatusRunning   = "RUNNING"
	CampaignStatusCompleted = "COMPLETED"
	CampaignStatusFailed    = "FAILED"
)

// Campaign is a bulk template send against a segment
type Campaign struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	TemplateID  string     `gorm:"type:varchar(255);not null;index" json:"template_id"`
	SegmentID   *uint      `gorm:"index" json:"segment_id"`
	Status      string     `gorm:"type:varchar(50);default:'DRAFT'" json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Total       int        `json:"total"`
	Sent        int        `json:"sent"`
	Failed      int        `json:"failed"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// CampaignMessage tracks one campaign send to one contact
type CampaignMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CampaignID string     `gorm:"type:varchar(255);not null;index" json:"campaign_id"`
	WaID       string     `gorm:"type:varchar(50);not null" json:"wa_id"`
	MessageID  string     `gorm:"type:varchar(255);index" json:"message_id"` // provider wamid
	Status     string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Error      string     `gorm:"type:text" json:"error"`
	SentAt     *time.Time `json:"sent_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CampaignMessage) TableName() string {
	return "campaign_messages"
}

// Message represents a WhatsApp message in a conversation
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	WaID      string    `gorm:"index;not null" json:"wa_id"`
	Direction string    `gorm:"type:varchar(10);not null" json:"direction"` // in | out
	Sender    string    `gorm:"not null" json:"sender"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      string    `gorm:"type:varchar(50)" json:"type"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	MessageID string    `gorm:"type:varchar(255);index" json:"message_id"` // provider wamid
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Flow trigger match modes
const (
	MatchEquals     = "equals"
	MatchContains   = "contains"
	MatchStartsWith = "starts_with"
	MatchRegex      = "regex"
)

// Flow represents a chatbot flow with ReactFlow graph data
type Flow struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	TriggerValue string     `gorm:"type:varchar(255)" json:"trigger_value"` // keyword
	MatchMode    string     `gorm:"type:varchar(50);default:'equals'" json:"match_mode"`
	Enabled      bool       `gorm:"default:true" json:"enabled"`
	Nodes        []FlowNode `gorm:"foreignKey:FlowID;constraint:OnDelete:CASCADE;" json:"nodes"`
	Edges        []FlowEdge `gorm:"foreignKey:FlowID;constraint:OnDelete:CASCADE;" json:"edges"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Flow) TableName() string {
	return "flows"
}

type FlowNode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FlowID    string    `gorm:"index;type:varchar(255)" json:"flow_id"`
	NodeID    string    `gorm:"type:varchar(255)" json:"node_id"` // ReactFlow node id
	Type      string    `gorm:"type:varchar(50)" json:"type"`
	PositionX float64   `json:"position_x"`
	PositionY float64   `json:"position_y"`
	Data      string    `gorm:"type:text" json:"data"` // Node data JSON (label, text, isStart)
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FlowNode) TableName() string {
	return "flow_nodes"
}

type FlowEdge struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	FlowID       string `gorm:"index;type:varchar(255)" json:"flow_id"`
	EdgeID       string `gorm:"type:varchar(255)" json:"edge_id"` // ReactFlow edge id
	Source       string `gorm:"type:varchar(255)" json:"source"`
	Target       string `gorm:"type:varchar(255)" json:"target"`
	SourceHandle string `gorm:"type:varchar(255)" json:"source_handle"`
}

func (FlowEdge) TableName() string {
	return "flow_edges"
}

// PolicyRules stores a tenant's rule-list override as JSON arrays
type PolicyRules struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TenantID          string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"tenant_id"`
	SensitivePatterns string    `gorm:"type:text" json:"sensitive_patterns"` // JSON rule array
	SpamPatterns      string    `gorm:"type:text" json:"spam_patterns"`      // JSON rule array
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PolicyRules) TableName() string {
	return "policy_rules"
}

// SystemSetting is a key/value row for runtime configuration
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// Media represents an uploaded media bit
type Media struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MediaID    string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"media_id"`
	Filename   string    `gorm:"type:varchar(255)" json:"filename"`
	MimeType   string    `gorm:"type:varchar(100)" json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (Media) TableName() string {
	return "media"
}
